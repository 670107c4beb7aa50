// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldlabs/veld/kv"
)

func M(a ...any) []any {
	return a
}

func TestGetPut(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("missing"))
	assert.True(t, db.IsNotFound(err))
	assert.Equal(t, M(false, nil), M(db.Has([]byte("missing"))))

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	assert.Equal(t, M([]byte("v"), nil), M(db.Get([]byte("k"))))
	assert.Equal(t, M(true, nil), M(db.Has([]byte("k"))))

	require.NoError(t, db.Delete([]byte("k")))
	assert.Equal(t, M(false, nil), M(db.Has([]byte("k"))))
}

func TestBatch(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, batch.Put([]byte("k2"), []byte("v2")))
	require.NoError(t, batch.Delete([]byte("k1")))
	assert.Equal(t, 3, batch.Len())

	assert.Equal(t, M(false, nil), M(db.Has([]byte("k2"))))
	require.NoError(t, batch.Write())
	assert.Equal(t, M(false, nil), M(db.Has([]byte("k1"))))
	assert.Equal(t, M([]byte("v2"), nil), M(db.Get([]byte("k2"))))
}

func TestIterator(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("a1"), []byte("1")))
	require.NoError(t, db.Put([]byte("a2"), []byte("2")))
	require.NoError(t, db.Put([]byte("b1"), []byte("3")))

	it := db.NewIterator(kv.Range{From: []byte("a"), To: []byte("b")})
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"a1", "a2"}, keys)
}
