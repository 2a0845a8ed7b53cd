package provider

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdbml/internal/testutil"
	"github.com/leapstack-labs/leapdbml/pkg/core"
)

const users = `Table users {
  id int [pk]
}
`

func TestCompile_Basic(t *testing.T) {
	doc := Compile(users, "schema.dbml", 1, testutil.NewTestLogger(t))

	require.NotNil(t, doc)
	assert.Equal(t, "schema.dbml", doc.URI)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, users, doc.Content)
	assert.False(t, doc.HasErrors())
	require.NotNil(t, doc.Database())
	assert.Len(t, doc.Database().Tables, 1)
	assert.False(t, doc.CompiledAt.IsZero())
}

func TestCompile_WithErrors(t *testing.T) {
	doc := Compile("Table users {\n  id int [ref: > orgs.id]\n}\n", "schema.dbml", 1, testutil.NewTestLogger(t))

	require.NotNil(t, doc)
	assert.True(t, doc.HasErrors())
	assert.Equal(t, []core.ErrorCode{core.ErrBindingNotFound}, doc.Diagnostics().Codes())
}

func TestDocument_Nil(t *testing.T) {
	var doc *Document
	assert.Nil(t, doc.Database())
	assert.Empty(t, doc.Diagnostics())
	assert.False(t, doc.HasErrors())
}

func TestProvider_GetOrCompile_Caches(t *testing.T) {
	p := New(WithLogger(testutil.NewTestLogger(t)))

	doc1 := p.GetOrCompile("a.dbml", users, 1)
	doc2 := p.GetOrCompile("a.dbml", users, 1)
	assert.Same(t, doc1, doc2, "same version should return cached document")

	older := p.GetOrCompile("a.dbml", "Table other {}\n", 0)
	assert.Same(t, doc1, older, "older version should not replace the cache")
}

func TestProvider_GetOrCompile_NewVersion(t *testing.T) {
	p := New()

	doc1 := p.GetOrCompile("a.dbml", users, 1)
	doc2 := p.GetOrCompile("a.dbml", "Table orgs {\n  id int\n}\n", 2)

	assert.NotSame(t, doc1, doc2)
	assert.Equal(t, 2, doc2.Version)
	assert.Equal(t, "orgs", doc2.Database().Tables[0].Name)
	assert.Same(t, doc2, p.Get("a.dbml"))
}

func TestProvider_Invalidate(t *testing.T) {
	p := New()
	p.GetOrCompile("a.dbml", users, 1)
	p.GetOrCompile("b.dbml", users, 1)
	assert.Equal(t, []string{"a.dbml", "b.dbml"}, p.URIs())

	p.Invalidate("a.dbml")
	assert.Nil(t, p.Get("a.dbml"))
	assert.NotNil(t, p.Get("b.dbml"))

	p.InvalidateAll()
	assert.Nil(t, p.Get("b.dbml"))
	assert.Empty(t, p.URIs())
}

func TestProvider_Concurrent(t *testing.T) {
	p := New()

	var wg sync.WaitGroup
	docs := make([]*Document, 16)
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			docs[i] = p.GetOrCompile("a.dbml", users, 1)
		}(i)
	}
	wg.Wait()

	for _, d := range docs[1:] {
		assert.Same(t, docs[0], d)
	}
}
