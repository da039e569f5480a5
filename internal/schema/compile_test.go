package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matryoshka/internal/diag"
	"matryoshka/internal/schema"
)

const exampleSchema = `
datasource db {
  provider = "mongodb"
  url      = env("DATABASE_URL")
}

type Address {
  street String
  number Int
  city   String
}

model User {
  id        String    @id @map("_id")
  addresses Address[]

  @@unique([addresses.number])
  @@index([addresses.street])
  @@fulltext([addresses.city])
}
`

func TestCompileExampleSchema(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("example.dsl", exampleSchema)

	require.True(t, res.OK())
	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Descriptors, 3)

	uq := res.Descriptors[0]
	assert.Equal(t, schema.Unique, uq.Kind)
	assert.Equal(t, "User", uq.Model)
	require.Len(t, uq.Paths, 1)
	assert.Equal(t, "addresses.number", uq.Paths[0].Raw)
	assert.True(t, uq.Paths[0].ArrayTraversed)
	assert.Equal(t, schema.KindInt, uq.Paths[0].Scalar)

	idx := res.Descriptors[1]
	assert.Equal(t, schema.Index, idx.Kind)
	assert.Equal(t, "addresses.street", idx.Paths[0].Raw)
	assert.True(t, idx.Paths[0].ArrayTraversed)

	ft := res.Descriptors[2]
	assert.Equal(t, schema.FullText, ft.Kind)
	assert.Equal(t, "addresses.city", ft.Paths[0].Raw)
	assert.True(t, ft.Paths[0].ArrayTraversed)
	assert.Equal(t, schema.KindString, ft.Paths[0].Scalar)
}

// Компиляция детерминирована: два прогона одного исходника дают одинаковые
// дескрипторы и диагностики
func TestCompileDeterministic(t *testing.T) {
	t.Parallel()

	src := exampleSchema + `
model Post {
  title String
  body  String
  @@fulltext([title, body])
  @@index([title])
}
`
	a := schema.CompileSource("example.dsl", src)
	b := schema.CompileSource("example.dsl", src)

	require.True(t, a.OK())
	assert.Equal(t, a.Descriptors, b.Descriptors)
	assert.Equal(t, a.Diagnostics, b.Diagnostics)
}

func TestCompileTwoArrayTraversalsRejected(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("t.dsl", `
type Phone {
  number String
}

type Address {
  phones Phone[]
}

model User {
  addresses Address[]
  @@unique([addresses.phones.number])
}
`)

	require.False(t, res.OK())
	assert.Nil(t, res.Descriptors)

	errs := errorsOf(res)
	require.Len(t, errs, 1)
	assert.Equal(t, diag.CodeMultipleArrayTraversals, errs[0].Code)
}

func TestCompileFullTextOnNonText(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("t.dsl", `
type Address {
  number Int
}

model User {
  addresses Address[]
  @@fulltext([addresses.number])
}
`)

	require.False(t, res.OK())
	assert.Nil(t, res.Descriptors)

	errs := errorsOf(res)
	require.Len(t, errs, 1)
	assert.Equal(t, diag.CodeFullTextNonText, errs[0].Code)
	assert.Equal(t, "addresses.number", errs[0].Path)
}

// @@fulltext по композиту тоже отклоняется: терминал не текстовый скаляр
func TestCompileFullTextOnComposite(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("t.dsl", `
type Address {
  street String
}

model User {
  home Address
  @@fulltext([home])
}
`)

	require.False(t, res.OK())
	errs := errorsOf(res)
	require.Len(t, errs, 1)
	assert.Equal(t, diag.CodeFullTextNonText, errs[0].Code)
}

func TestCompileMissingCompositeType(t *testing.T) {
	t.Parallel()

	// Address удалён, поле и ограничения остались: ровно один unknown_type,
	// дескрипторов нет
	res := schema.CompileSource("t.dsl", `
model User {
  id        String @id
  addresses Address[]

  @@unique([addresses.number])
  @@index([addresses.street])
  @@fulltext([addresses.city])
}
`)

	require.False(t, res.OK())
	assert.Nil(t, res.Descriptors)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.CodeUnknownType, res.Diagnostics[0].Code)
}

func TestCompileRenamedFieldBreaksConstraint(t *testing.T) {
	t.Parallel()

	// number переименован в num, а @@unique всё ещё говорит addresses.number
	res := schema.CompileSource("t.dsl", `
type Address {
  street String
  num    Int
  city   String
}

model User {
  addresses Address[]

  @@unique([addresses.number])
  @@index([addresses.street])
  @@fulltext([addresses.city])
}
`)

	require.False(t, res.OK())
	assert.Nil(t, res.Descriptors)

	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, diag.CodePathSegmentNotFound, d.Code)
	assert.Equal(t, "addresses.number", d.Path)
}

func TestCompileFieldLevelUnique(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("t.dsl", `
model User {
  id    String @id
  email String @unique
}
`)

	require.True(t, res.OK())
	require.Len(t, res.Descriptors, 1)
	d := res.Descriptors[0]
	assert.Equal(t, schema.Unique, d.Kind)
	require.Len(t, d.Paths, 1)
	assert.Equal(t, "email", d.Paths[0].Raw)
	assert.False(t, d.Paths[0].ArrayTraversed)
}

func TestCompileCompositeKeyUnique(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("t.dsl", `
model Order {
  region String
  number Int
  @@unique([region, number])
}
`)

	require.True(t, res.OK())
	require.Len(t, res.Descriptors, 1)
	require.Len(t, res.Descriptors[0].Paths, 2)
	assert.Equal(t, "region", res.Descriptors[0].Paths[0].Raw)
	assert.Equal(t, "number", res.Descriptors[0].Paths[1].Raw)
}

// Ошибка в одной модели не глушит диагностику другой — прогон репортит всё
func TestCompileReportsAcrossModels(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("t.dsl", `
model A {
  name String
  @@index([missing])
}

model B {
  count Int
  @@fulltext([count])
}
`)

	require.False(t, res.OK())
	assert.Nil(t, res.Descriptors)

	codes := map[string]int{}
	for _, d := range res.Diagnostics {
		codes[d.Code]++
	}
	assert.Equal(t, 1, codes[diag.CodePathSegmentNotFound])
	assert.Equal(t, 1, codes[diag.CodeFullTextNonText])
}

// Warning не блокирует успех и дескрипторы
func TestCompileWarningsDoNotFail(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("t.dsl", `
model User {
  id String @id @deprecated
  @@index([id])
}
`)

	require.True(t, res.OK())
	require.Len(t, res.Descriptors, 1)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.Warning, res.Diagnostics[0].Severity)
}

func TestCompileStorageMapping(t *testing.T) {
	t.Parallel()

	res := schema.CompileSource("t.dsl", `
type Address {
  street String @map("street_name")
}

model User {
  addresses Address[] @map("addr")
  @@index([addresses.street])
}
`)

	require.True(t, res.OK())
	require.Len(t, res.Descriptors, 1)
	p := res.Descriptors[0].Paths[0]
	assert.Equal(t, "addresses.street", p.Raw)
	assert.Equal(t, "addr.street_name", p.StoragePath)
}

func errorsOf(res *schema.Result) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range res.Diagnostics {
		if d.Severity == diag.Error {
			out = append(out, d)
		}
	}
	return out
}
