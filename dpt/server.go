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

package dpt

import (
	"context"

	"github.com/ethereum/go-ethereum/event"
)

// Server is the UDP discovery transport the peer table consults. The wire
// protocol, socket handling and per-request timeouts live behind this
// boundary.
type Server interface {
	// Bind opens the discovery socket.
	Bind() error

	// Ping probes a peer for liveness. It returns the confirmed PeerInfo,
	// with the id filled in if it was absent, or an error on timeout or
	// transport failure.
	Ping(ctx context.Context, peer *PeerInfo) (*PeerInfo, error)

	// FindNeighbours asks a peer for nodes close to the 64-byte target id.
	// It is fire-and-forget; results surface through the peers
	// subscription.
	FindNeighbours(peer *PeerInfo, targetID []byte)

	// SubscribePeers delivers batches of peers learned from neighbour
	// responses.
	SubscribePeers(ch chan<- []*PeerInfo) event.Subscription

	// Close tears down the socket.
	Close() error
}
