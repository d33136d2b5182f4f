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

// Package dpt implements the distributed peer table of a devp2p node: a
// Kademlia-style k-bucket routing table, a time-bounded ban list and the
// coordinator that feeds the table from a UDP discovery server and,
// optionally, from signed DNS peer lists (EIP-1459).
package dpt

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NodeIDLength is the byte length of a node id: an uncompressed secp256k1
// public key without the 0x04 tag.
const NodeIDLength = 64

// PeerInfo is the identity record of a remote node. The id may be absent
// before first contact; such peers are identified by their UDP endpoint.
type PeerInfo struct {
	ID      []byte // 64 bytes, may be nil until learned
	Address string // IPv4/IPv6 literal
	UDPPort uint16
	TCPPort uint16
}

// String implements fmt.Stringer for log output.
func (p *PeerInfo) String() string {
	if len(p.ID) > 0 {
		return fmt.Sprintf("%s@%s:%d", hexutil.Encode(p.ID[:8]), p.Address, p.UDPPort)
	}
	return fmt.Sprintf("%s:%d", p.Address, p.UDPPort)
}

// key returns the strongest available identifier: the id when known, the
// UDP endpoint otherwise.
func (p *PeerInfo) key() string {
	if len(p.ID) > 0 {
		return string(p.ID)
	}
	return p.endpointKey()
}

func (p *PeerInfo) endpointKey() string {
	return fmt.Sprintf("%s:%d", p.Address, p.UDPPort)
}

// identifiers returns every key a peer can be denied or looked up by:
// its id, its address and its address:udpPort endpoint.
func (p *PeerInfo) identifiers() []string {
	keys := make([]string, 0, 3)
	if len(p.ID) > 0 {
		keys = append(keys, string(p.ID))
	}
	if p.Address != "" {
		keys = append(keys, p.Address, p.endpointKey())
	}
	return keys
}
