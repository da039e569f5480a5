package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"matryoshka/internal/diag"
)

func TestCollectorOrderAndErrors(t *testing.T) {
	t.Parallel()

	c := &diag.Collector{}
	assert.False(t, c.HasErrors())
	assert.Empty(t, c.All())

	c.Add(diag.Diagnostic{Severity: diag.Warning, Code: diag.CodeUnknownAttribute, Message: "w1"})
	assert.False(t, c.HasErrors())

	c.Add(diag.Diagnostic{Severity: diag.Error, Code: diag.CodeSyntax, Message: "e1"})
	c.Append(
		diag.Diagnostic{Severity: diag.Warning, Code: diag.CodeUnknownAttribute, Message: "w2"},
		diag.Diagnostic{Severity: diag.Error, Code: diag.CodeUnknownType, Message: "e2"},
	)

	assert.True(t, c.HasErrors())
	assert.Equal(t, 4, c.Len())

	all := c.All()
	assert.Equal(t, []string{"w1", "e1", "w2", "e2"}, []string{all[0].Message, all[1].Message, all[2].Message, all[3].Message})
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	c := &diag.Collector{}
	c.Add(diag.Diagnostic{Severity: diag.Warning, Message: "original"})

	all := c.All()
	all[0].Message = "mutated"

	assert.Equal(t, "original", c.All()[0].Message)
}
