package codegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matryoshka/internal/codegen"
	"matryoshka/internal/schema"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	res := schema.CompileSource("test.dsl", src)
	require.True(t, res.OK(), "fixture must compile cleanly: %v", res.Diagnostics)
	out, err := codegen.Generate(res.Table, "client")
	require.NoError(t, err)
	return out
}

func TestGenerateStructs(t *testing.T) {
	t.Parallel()

	out := generate(t, `
type Address {
  street String @map("street_name")
  number Int
}

model User {
  id        String    @id
  nick      String?
  age       Int
  addresses Address[]
  created   DateTime
}
`)

	assert.Contains(t, out, "package client")
	assert.Contains(t, out, "Code generated by matryoshka. DO NOT EDIT.")

	// композитные типы идут раньше моделей
	addrAt := strings.Index(out, "type Address struct")
	userAt := strings.Index(out, "type User struct")
	require.NotEqual(t, -1, addrAt)
	require.NotEqual(t, -1, userAt)
	assert.Less(t, addrAt, userAt)

	// имена хранилища уходят в bson-теги, @id без @map становится _id
	assert.Contains(t, out, "`bson:\"_id\"`")
	assert.Contains(t, out, "`bson:\"street_name\"`")

	// optional → указатель с omitempty
	assert.Contains(t, out, "Nick *string")
	assert.Contains(t, out, "`bson:\"nick,omitempty\"`")

	// массив композита → слайс
	assert.Contains(t, out, "Addresses []Address")

	// скаляры
	assert.Contains(t, out, "Age int64")
	assert.Contains(t, out, "Created time.Time")
	assert.Contains(t, out, `"time"`)
}

func TestGenerateNameCamelization(t *testing.T) {
	t.Parallel()

	out := generate(t, `
model order_item {
  unit_price Float
}
`)

	assert.Contains(t, out, "type OrderItem struct")
	assert.Contains(t, out, "UnitPrice float64")
	// в хранилище — имя из схемы, не Go-имя
	assert.Contains(t, out, "`bson:\"unit_price\"`")
}

func TestGenerateScalarKinds(t *testing.T) {
	t.Parallel()

	out := generate(t, `
model Blob {
  ok      Boolean
  payload Bytes
  extra   Json
  tags    String[]
}
`)

	assert.Contains(t, out, "Ok bool")
	assert.Contains(t, out, "Payload []byte")
	assert.Contains(t, out, "Extra json.RawMessage")
	assert.Contains(t, out, "Tags []string")
}
