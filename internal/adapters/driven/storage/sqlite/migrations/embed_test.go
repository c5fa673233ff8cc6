package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending_Embedded(t *testing.T) {
	all, err := Pending(0)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "001_initial", all[0].Name)
	assert.Contains(t, all[0].SQL, "CREATE TABLE")

	none, err := Pending(all[len(all)-1].Version)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPending_OrdersAndSkipsApplied(t *testing.T) {
	fsys := fstest.MapFS{
		"002_chunks.up.sql":    {Data: []byte("two")},
		"001_initial.up.sql":   {Data: []byte("one")},
		"001_initial.down.sql": {Data: []byte("drop")},
		"003_index.up.sql":     {Data: []byte("three")},
	}

	got, err := pending(fsys, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Version)
	assert.Equal(t, "two", got[0].SQL)
	assert.Equal(t, "003_index", got[1].Name)
}

func TestPending_BadName(t *testing.T) {
	_, err := pending(fstest.MapFS{"initial.up.sql": {Data: []byte("x")}}, 0)
	assert.Error(t, err)
}
