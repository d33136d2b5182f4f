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

// Package account implements the Ethereum account model: the RLP-encoded
// four-field account body, EIP-55/EIP-1191 address checksums, CREATE and
// CREATE2 contract address derivation and secp256k1 key/address derivation.
package account

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	// EmptyRootHash is the root of the empty trie, keccak256(rlp("")).
	EmptyRootHash = types.EmptyRootHash

	// EmptyCodeHash is keccak256 of the empty byte string.
	EmptyCodeHash = types.EmptyCodeHash
)

var (
	// ErrMalformedAccount is returned when an RLP payload is not a
	// four-element list of byte strings.
	ErrMalformedAccount = errors.New("malformed serialized account")

	// ErrInvalidAccount is returned when account field invariants are broken.
	ErrInvalidAccount = errors.New("invalid account")
)

// Account is the consensus representation of an Ethereum account: nonce,
// balance, storage trie root and code hash. Nonce and balance are unbounded
// non-negative integers. Treat constructed accounts as immutable.
type Account struct {
	Nonce       *big.Int
	Balance     *big.Int
	StorageRoot common.Hash
	CodeHash    common.Hash
}

// rlpAccount is the RLP shape of an account body. The root fields are byte
// slices rather than hashes so that length violations are reported as
// invariant errors instead of decoder errors.
type rlpAccount struct {
	Nonce       *big.Int
	Balance     *big.Int
	StorageRoot []byte
	CodeHash    []byte
}

// NewAccount constructs an account, resolving nil fields to their defaults:
// zero nonce, zero balance, EmptyRootHash and EmptyCodeHash. All optional
// inputs funnel through here so the stored form carries no optionals.
func NewAccount(nonce, balance *big.Int, storageRoot, codeHash []byte) (*Account, error) {
	if nonce == nil {
		nonce = new(big.Int)
	}
	if balance == nil {
		balance = new(big.Int)
	}
	if storageRoot == nil {
		storageRoot = EmptyRootHash.Bytes()
	}
	if codeHash == nil {
		codeHash = EmptyCodeHash.Bytes()
	}
	acc := &Account{
		Nonce:       new(big.Int).Set(nonce),
		Balance:     new(big.Int).Set(balance),
		StorageRoot: common.BytesToHash(storageRoot),
		CodeHash:    common.BytesToHash(codeHash),
	}
	if err := validateFields(nonce, balance, storageRoot, codeHash); err != nil {
		return nil, err
	}
	return acc, nil
}

// FromRLP decodes a serialized account. The payload must be a canonical RLP
// list of exactly four byte strings.
func FromRLP(data []byte) (*Account, error) {
	var body rlpAccount
	if err := rlp.DecodeBytes(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAccount, err)
	}
	return NewAccount(body.Nonce, body.Balance, body.StorageRoot, body.CodeHash)
}

func validateFields(nonce, balance *big.Int, storageRoot, codeHash []byte) error {
	if nonce.Sign() < 0 {
		return fmt.Errorf("%w: nonce must be non-negative", ErrInvalidAccount)
	}
	if balance.Sign() < 0 {
		return fmt.Errorf("%w: balance must be non-negative", ErrInvalidAccount)
	}
	if len(storageRoot) != common.HashLength {
		return fmt.Errorf("%w: storage root must be %d bytes, got %d", ErrInvalidAccount, common.HashLength, len(storageRoot))
	}
	if len(codeHash) != common.HashLength {
		return fmt.Errorf("%w: code hash must be %d bytes, got %d", ErrInvalidAccount, common.HashLength, len(codeHash))
	}
	return nil
}

// Raw returns [nonce, balance, storageRoot, codeHash] with the integers in
// unpadded big-endian form (zero encodes as the empty byte string).
func (a *Account) Raw() [][]byte {
	return [][]byte{
		a.Nonce.Bytes(),
		a.Balance.Bytes(),
		a.StorageRoot.Bytes(),
		a.CodeHash.Bytes(),
	}
}

// Serialize returns the RLP encoding of the account body.
func (a *Account) Serialize() []byte {
	data, err := rlp.EncodeToBytes(&rlpAccount{
		Nonce:       a.Nonce,
		Balance:     a.Balance,
		StorageRoot: a.StorageRoot.Bytes(),
		CodeHash:    a.CodeHash.Bytes(),
	})
	if err != nil {
		// Only unsupported types can fail to encode, which the account
		// body does not contain.
		panic(err)
	}
	return data
}

// SerializeSlim returns the RLP encoding of the slim account body, where
// default root and code hashes are replaced by empty byte strings.
func (a *Account) SerializeSlim() []byte {
	data, err := rlp.EncodeToBytes(&slimAccount{
		Nonce:       a.Nonce,
		Balance:     a.Balance,
		StorageRoot: slimHash(a.StorageRoot, EmptyRootHash),
		CodeHash:    slimHash(a.CodeHash, EmptyCodeHash),
	})
	if err != nil {
		panic(err)
	}
	return data
}

// IsContract reports whether the account has code associated with it.
func (a *Account) IsContract() bool {
	return a.CodeHash != EmptyCodeHash
}

// IsEmpty reports whether the account is empty per EIP-161: zero nonce,
// zero balance and no code.
func (a *Account) IsEmpty() bool {
	return a.Nonce.Sign() == 0 && a.Balance.Sign() == 0 && a.CodeHash == EmptyCodeHash
}
