// Copyright 2025 The go-dpt Authors
// This file is part of the go-dpt library.
//
// The go-dpt library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-dpt library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-dpt library. If not, see <http://www.gnu.org/licenses/>.

package account

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// GenerateAddress must agree with go-ethereum's CreateAddress for every
// nonce, including the zero nonce whose RLP form is the empty string.
func TestGenerateAddress(t *testing.T) {
	from := common.HexToAddress("0x970e8128ab834e8eac17ab8e3812f010678cf791")
	for _, nonce := range []uint64{0, 1, 127, 128, 255, 256, 1 << 32} {
		nonceBytes := new(big.Int).SetUint64(nonce).Bytes()
		got, err := GenerateAddress(from.Bytes(), nonceBytes)
		if err != nil {
			t.Fatalf("GenerateAddress(nonce=%d) failed: %v", nonce, err)
		}
		want := crypto.CreateAddress(from, nonce)
		if !bytes.Equal(got, want.Bytes()) {
			t.Errorf("nonce %d: got %x want %x", nonce, got, want)
		}
	}
}

func TestGenerateAddressZeroNonceDiffers(t *testing.T) {
	from := common.HexToAddress("0x990ccf8a0de58091c028d6ff76bb235ee67c1c39")
	addr0, err := GenerateAddress(from.Bytes(), nil)
	if err != nil {
		t.Fatal(err)
	}
	addr1, err := GenerateAddress(from.Bytes(), []byte{0x01})
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(addr0, addr1) {
		t.Error("nonce 0 and nonce 1 must derive different addresses")
	}
}

func TestGenerateAddressLength(t *testing.T) {
	if _, err := GenerateAddress([]byte{0x01, 0x02}, nil); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength for short sender, got %v", err)
	}
}

// The EIP-1014 zero vector: all-zero sender, all-zero salt, init code 0x00.
func TestGenerateAddress2Vector(t *testing.T) {
	got, err := GenerateAddress2(make([]byte, 20), make([]byte, 32), []byte{0x00})
	if err != nil {
		t.Fatalf("GenerateAddress2 failed: %v", err)
	}
	want := common.HexToAddress("0x4d1a2e2bb4f88f0250f26ffff098b0b30b26bf38")
	if !bytes.Equal(got, want.Bytes()) {
		t.Errorf("got %x want %x", got, want)
	}
}

func TestGenerateAddress2Oracle(t *testing.T) {
	from := common.HexToAddress("0xdeadbeef00000000000000000000000000000000")
	salt := common.HexToHash("0x000000000000000000000000feed000000000000000000000000000000000000")
	initCode := common.FromHex("0x00")

	got, err := GenerateAddress2(from.Bytes(), salt.Bytes(), initCode)
	if err != nil {
		t.Fatalf("GenerateAddress2 failed: %v", err)
	}
	want := crypto.CreateAddress2(from, salt, crypto.Keccak256(initCode))
	if !bytes.Equal(got, want.Bytes()) {
		t.Errorf("got %x want %x", got, want)
	}
}

func TestGenerateAddress2Length(t *testing.T) {
	if _, err := GenerateAddress2(make([]byte, 19), make([]byte, 32), nil); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength for short sender, got %v", err)
	}
	if _, err := GenerateAddress2(make([]byte, 20), make([]byte, 31), nil); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength for short salt, got %v", err)
	}
}
