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
	"testing"
	"time"
)

func TestBanListKeying(t *testing.T) {
	list := NewBanList()
	peer := &PeerInfo{ID: testID(1), Address: "10.0.0.1", UDPPort: 30303}
	list.Add(peer, time.Minute)

	refs := []*PeerInfo{
		{ID: testID(1)},
		{Address: "10.0.0.1"},
		{Address: "10.0.0.1", UDPPort: 30303},
		{Address: "10.0.0.1", UDPPort: 9999}, // matches by bare address
	}
	for _, ref := range refs {
		if !list.Has(ref) {
			t.Errorf("ban should cover %v", ref)
		}
	}
	if list.Has(&PeerInfo{ID: testID(2), Address: "10.0.0.2", UDPPort: 30303}) {
		t.Error("unrelated peer reported banned")
	}
}

func TestBanListExpiry(t *testing.T) {
	list := NewBanList()
	now := time.Now()
	list.now = func() time.Time { return now }

	peer := &PeerInfo{ID: testID(3), Address: "10.0.0.3", UDPPort: 30303}
	list.Add(peer, time.Minute)

	if !list.Has(peer) {
		t.Fatal("fresh ban not effective")
	}
	now = now.Add(time.Minute + time.Second)
	if list.Has(peer) {
		t.Error("expired ban still effective")
	}
	// Lazy purge dropped the record.
	if len(list.entries) != 0 {
		t.Errorf("expired entries not purged, %d left", len(list.entries))
	}
}

func TestBanListDefaultDuration(t *testing.T) {
	list := NewBanList()
	now := time.Now()
	list.now = func() time.Time { return now }

	peer := &PeerInfo{ID: testID(4)}
	list.Add(peer, 0)

	now = now.Add(DefaultBanDuration - time.Second)
	if !list.Has(peer) {
		t.Error("default ban expired early")
	}
	now = now.Add(2 * time.Second)
	if list.Has(peer) {
		t.Error("default ban outlived its duration")
	}
}
