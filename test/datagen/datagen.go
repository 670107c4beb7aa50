// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package datagen generates random fixtures for tests.
package datagen

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"

	"github.com/veldlabs/veld/veld"
)

func RandAddress() (addr veld.Address) {
	rand.Read(addr[:])
	return
}

func RandBytes32() (b veld.Bytes32) {
	rand.Read(b[:])
	return
}

func RandInt() int {
	return mathrand.Int() //#nosec G404
}

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}

// RandAmount returns a random positive amount below 1e18.
func RandAmount() *big.Int {
	return big.NewInt(int64(mathrand.N(1_000_000_000_000_000_000))) //#nosec G404
}
