package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBase() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "test_table",
		[]string{"id", "name", "version", "stock_quantity"},
		[]string{"name"},
		func() any { return nil })
}

func TestParseOrderBy(t *testing.T) {
	repo := newTestBase()

	got, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "created_at DESC", got)

	got, err = repo.parseOrderBy("name")
	require.NoError(t, err)
	assert.Equal(t, "name ASC", got)

	got, err = repo.parseOrderBy("-name")
	require.NoError(t, err)
	assert.Equal(t, "name DESC", got)

	got, err = repo.parseOrderBy("+created_at")
	require.NoError(t, err)
	assert.Equal(t, "created_at ASC", got)

	_, err = repo.parseOrderBy("name; DROP TABLE test_table")
	require.Error(t, err, "unknown columns are rejected")
}

func TestSkipOnUpdate(t *testing.T) {
	repo := newTestBase()
	repo.SkipOnUpdate("stock_quantity")
	assert.True(t, repo.skipOnUpdate["stock_quantity"])
	assert.False(t, repo.skipOnUpdate["name"])
}
