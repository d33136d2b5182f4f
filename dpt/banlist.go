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
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// DefaultBanDuration is applied when a ban is recorded without an explicit
// maximum age.
const DefaultBanDuration = 5 * time.Minute

// BanList is a time-bounded denial set over peer identities. A peer is
// covered when any of its identifiers (id, address, address:udpPort) carries
// a non-expired ban. Expired records are purged lazily on lookup.
type BanList struct {
	mu      sync.Mutex
	entries map[string]time.Time // identifier -> expiry

	now func() time.Time
}

// NewBanList creates an empty ban list.
func NewBanList() *BanList {
	return &BanList{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Add records a ban on every identifier of peer, expiring after maxAge.
// A non-positive maxAge applies DefaultBanDuration.
func (b *BanList) Add(peer *PeerInfo, maxAge time.Duration) {
	if maxAge <= 0 {
		maxAge = DefaultBanDuration
	}
	keys := peer.identifiers()
	if len(keys) == 0 {
		return
	}
	expiry := b.now().Add(maxAge)

	b.mu.Lock()
	for _, key := range keys {
		b.entries[key] = expiry
	}
	b.mu.Unlock()

	bansCounter.Inc(1)
	log.Debug("Peer banned", "peer", peer, "until", expiry)
}

// Has reports whether a non-expired ban covers any identifier of peer.
func (b *BanList) Has(peer *PeerInfo) bool {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	banned := false
	for _, key := range peer.identifiers() {
		expiry, ok := b.entries[key]
		if !ok {
			continue
		}
		if now.Before(expiry) {
			banned = true
		} else {
			delete(b.entries, key)
		}
	}
	return banned
}
