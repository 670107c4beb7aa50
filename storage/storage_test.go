// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldlabs/veld/lvldb"
	"github.com/veldlabs/veld/state"
	"github.com/veldlabs/veld/storage"
	"github.com/veldlabs/veld/test/datagen"
	"github.com/veldlabs/veld/veld"
)

func M(a ...any) []any {
	return a
}

func newContext(t *testing.T) *storage.Context {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	return storage.NewContext(datagen.RandAddress(), state.New(store))
}

type strKey string

func (k strKey) Bytes() []byte { return []byte(k) }

func TestMapping(t *testing.T) {
	context := newContext(t)
	m := storage.NewMapping[strKey, uint64](context, storage.NameToSlot("m"))

	// absent key reads as zero value
	assert.Equal(t, M(uint64(0), nil), M(m.Get("k")))
	assert.Equal(t, M(false, nil), M(m.Has("k")))

	require.NoError(t, m.Set("k", 42))
	assert.Equal(t, M(uint64(42), nil), M(m.Get("k")))
	assert.Equal(t, M(true, nil), M(m.Has("k")))

	require.NoError(t, m.Delete("k"))
	assert.Equal(t, M(uint64(0), nil), M(m.Get("k")))
	assert.Equal(t, M(false, nil), M(m.Has("k")))
}

func TestMappingPointerValues(t *testing.T) {
	context := newContext(t)
	m := storage.NewMapping[strKey, *big.Int](context, storage.NameToSlot("m"))

	// absent pointer values come back allocated, not nil
	v, err := m.Get("k")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, m.Set("k", big.NewInt(42)))
	assert.Equal(t, M(big.NewInt(42), nil), M(m.Get("k")))
}

func TestMappingIsolation(t *testing.T) {
	context := newContext(t)
	m1 := storage.NewMapping[strKey, uint64](context, storage.NameToSlot("m1"))
	m2 := storage.NewMapping[strKey, uint64](context, storage.NameToSlot("m2"))

	require.NoError(t, m1.Set("k", 1))
	require.NoError(t, m2.Set("k", 2))
	assert.Equal(t, M(uint64(1), nil), M(m1.Get("k")))
	assert.Equal(t, M(uint64(2), nil), M(m2.Get("k")))
}

func TestUint256(t *testing.T) {
	context := newContext(t)
	u := storage.NewUint256(context, storage.NameToSlot("u"))

	assert.Equal(t, M(new(big.Int), nil), M(u.Get()))

	require.NoError(t, u.Set(big.NewInt(100)))
	assert.Equal(t, M(big.NewInt(100), nil), M(u.Get()))

	require.NoError(t, u.Add(big.NewInt(50)))
	assert.Equal(t, M(big.NewInt(150), nil), M(u.Get()))
	require.NoError(t, u.Sub(big.NewInt(150)))
	assert.Equal(t, M(new(big.Int), nil), M(u.Get()))

	// values beyond 64 bits survive the round trip
	huge, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	require.NoError(t, u.Set(huge))
	assert.Equal(t, M(huge, nil), M(u.Get()))
}

func TestUint64(t *testing.T) {
	context := newContext(t)
	u := storage.NewUint64(context, storage.NameToSlot("u"))

	assert.Equal(t, M(uint64(0), nil), M(u.Get()))
	require.NoError(t, u.Set(7))
	assert.Equal(t, M(uint64(7), nil), M(u.Get()))
	require.NoError(t, u.Set(0))
	assert.Equal(t, M(uint64(0), nil), M(u.Get()))
}

func TestAddressSlot(t *testing.T) {
	context := newContext(t)
	slot := storage.NewAddressSlot(context, storage.NameToSlot("a"))

	assert.Equal(t, M(veld.Address{}, nil), M(slot.Get()))

	addr := datagen.RandAddress()
	require.NoError(t, slot.Set(addr))
	assert.Equal(t, M(addr, nil), M(slot.Get()))

	// leading-zero addresses survive the trimmed encoding
	small := veld.BytesToAddress([]byte{1})
	require.NoError(t, slot.Set(small))
	assert.Equal(t, M(small, nil), M(slot.Get()))
}
