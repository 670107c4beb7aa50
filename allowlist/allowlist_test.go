// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package allowlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldlabs/veld/lvldb"
	"github.com/veldlabs/veld/state"
	"github.com/veldlabs/veld/test/datagen"
	"github.com/veldlabs/veld/veld"
)

func M(a ...any) []any {
	return a
}

func newAllowlist(t *testing.T) *Allowlist {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	return New(veld.BytesToAddress([]byte("allowlist")), state.New(store))
}

func TestInitialize(t *testing.T) {
	al := newAllowlist(t)
	executor := datagen.RandAddress()

	assert.Equal(t, M(veld.Address{}, nil), M(al.Executor()))
	require.NoError(t, al.Initialize(executor))
	assert.Equal(t, M(executor, nil), M(al.Executor()))

	// a second call must not replace the executor
	require.NoError(t, al.Initialize(datagen.RandAddress()))
	assert.Equal(t, M(executor, nil), M(al.Executor()))
}

func TestAddRevoke(t *testing.T) {
	al := newAllowlist(t)
	a := datagen.RandAddress()
	b := datagen.RandAddress()
	c := datagen.RandAddress()
	id := datagen.RandBytes32()

	assert.Equal(t, M(false, nil), M(al.IsApproved(a)))

	assert.Equal(t, M(true, nil), M(al.Add(a, id)))
	assert.Equal(t, M(true, nil), M(al.IsApproved(a)))
	assert.Equal(t, M(true, id, nil), M(al.Get(a)))

	// duplicates are rejected
	assert.Equal(t, M(false, nil), M(al.Add(a, id)))

	assert.Equal(t, M(true, nil), M(al.Add(b, datagen.RandBytes32())))
	assert.Equal(t, M(true, nil), M(al.Add(c, datagen.RandBytes32())))

	// revoking the middle entry keeps the rest linked
	assert.Equal(t, M(true, nil), M(al.Revoke(b)))
	assert.Equal(t, M(false, nil), M(al.IsApproved(b)))
	assert.Equal(t, M(true, nil), M(al.IsApproved(a)))
	assert.Equal(t, M(true, nil), M(al.IsApproved(c)))

	// revoking an unlisted address is a no-op
	assert.Equal(t, M(false, nil), M(al.Revoke(b)))
	assert.Equal(t, M(false, nil), M(al.Revoke(datagen.RandAddress())))

	// a revoked address can be listed again
	assert.Equal(t, M(true, nil), M(al.Add(b, id)))
	assert.Equal(t, M(true, nil), M(al.IsApproved(b)))
}

func TestAll(t *testing.T) {
	al := newAllowlist(t)

	all, err := al.All()
	require.NoError(t, err)
	assert.Empty(t, all)

	addrs := []veld.Address{datagen.RandAddress(), datagen.RandAddress(), datagen.RandAddress()}
	ids := []veld.Bytes32{datagen.RandBytes32(), datagen.RandBytes32(), datagen.RandBytes32()}
	for i, addr := range addrs {
		_, err := al.Add(addr, ids[i])
		require.NoError(t, err)
	}

	// insertion order is preserved
	all, err = al.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, approved := range all {
		assert.Equal(t, addrs[i], approved.Address)
		assert.Equal(t, ids[i], approved.Identity)
	}

	// head and tail revocations shrink the walk from both ends
	_, err = al.Revoke(addrs[0])
	require.NoError(t, err)
	_, err = al.Revoke(addrs[2])
	require.NoError(t, err)
	all, err = al.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, addrs[1], all[0].Address)

	_, err = al.Revoke(addrs[1])
	require.NoError(t, err)
	all, err = al.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}
