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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

var addressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsValidAddress reports whether s is a 0x-prefixed 40-hex-digit address.
func IsValidAddress(s string) bool {
	return addressRegex.MatchString(s)
}

// ToChecksumAddress returns the checksummed form of a hex address per
// EIP-55. If a chain id is supplied the EIP-1191 variant is derived instead,
// mixing the decimal chain id into the checksum preimage. The two schemes
// are not compatible; callers must pick one and stick with it.
func ToChecksumAddress(address string, chainID ...uint64) (string, error) {
	if !IsValidAddress(address) {
		return "", fmt.Errorf("invalid address %q", address)
	}
	addr := strings.ToLower(address[2:])

	var prefix string
	if len(chainID) > 0 {
		prefix = strconv.FormatUint(chainID[0], 10) + "0x"
	}
	hash := crypto.Keccak256([]byte(prefix + addr))

	out := []byte(addr)
	for i := 0; i < len(out); i++ {
		nibble := hash[i/2] >> 4
		if i%2 == 1 {
			nibble = hash[i/2] & 0x0f
		}
		if nibble >= 8 && out[i] >= 'a' && out[i] <= 'f' {
			out[i] -= 'a' - 'A'
		}
	}
	return "0x" + string(out), nil
}

// IsValidChecksumAddress reports whether s is a valid address whose mixed
// casing matches its checksummed form. Case matters: an all-lowercase
// address is a valid address but not a valid checksum address unless its
// checksummed form happens to contain no uppercase letters.
func IsValidChecksumAddress(s string, chainID ...uint64) bool {
	if !IsValidAddress(s) {
		return false
	}
	checksummed, err := ToChecksumAddress(s, chainID...)
	if err != nil {
		return false
	}
	return checksummed == s
}
