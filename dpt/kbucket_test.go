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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"testing"
)

// testID builds a deterministic 64-byte node id.
func testID(n uint64) []byte {
	id := make([]byte, NodeIDLength)
	binary.BigEndian.PutUint64(id[:8], n)
	return id
}

func testPeerN(n uint64) *PeerInfo {
	return &PeerInfo{
		ID:      testID(n),
		Address: fmt.Sprintf("10.0.%d.%d", n/256%256, n%256),
		UDPPort: 30303,
	}
}

func TestKBucketAddGet(t *testing.T) {
	k := NewKBucket(testID(0), KBucketHandlers{})
	peer := testPeerN(1)
	if err := k.Add(peer); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if got := k.Get(&PeerInfo{ID: peer.ID}); got != peer {
		t.Error("lookup by id failed")
	}
	if got := k.Get(&PeerInfo{Address: peer.Address, UDPPort: peer.UDPPort}); got != peer {
		t.Error("lookup by endpoint failed")
	}
	if got := k.Get(&PeerInfo{Address: peer.Address}); got != peer {
		t.Error("lookup by address failed")
	}
	if got := k.Get(testPeerN(2)); got != nil {
		t.Error("lookup of absent peer returned entry")
	}
}

func TestKBucketMissingID(t *testing.T) {
	k := NewKBucket(testID(0), KBucketHandlers{})
	if err := k.Add(&PeerInfo{Address: "10.0.0.1", UDPPort: 30303}); !errors.Is(err, ErrMissingID) {
		t.Errorf("expected ErrMissingID, got %v", err)
	}
}

func TestKBucketNoDuplicateIDs(t *testing.T) {
	k := NewKBucket(testID(0), KBucketHandlers{})
	if err := k.Add(testPeerN(1)); err != nil {
		t.Fatal(err)
	}
	updated := testPeerN(1)
	updated.TCPPort = 30304
	if err := k.Add(updated); err != nil {
		t.Fatal(err)
	}
	if k.Count() != 1 {
		t.Fatalf("expected 1 entry, got %d", k.Count())
	}
	if got := k.Get(&PeerInfo{ID: testID(1)}); got.TCPPort != 30304 {
		t.Error("re-add did not refresh the stored record")
	}
}

func TestKBucketRemove(t *testing.T) {
	var removed []*PeerInfo
	k := NewKBucket(testID(0), KBucketHandlers{
		Removed: func(p *PeerInfo) { removed = append(removed, p) },
	})
	peer := testPeerN(1)
	if err := k.Add(peer); err != nil {
		t.Fatal(err)
	}
	k.Remove(&PeerInfo{Address: peer.Address, UDPPort: peer.UDPPort})

	if k.Count() != 0 {
		t.Fatal("entry still present after remove")
	}
	if k.Get(&PeerInfo{ID: peer.ID}) != nil {
		t.Error("id index not cleaned up")
	}
	if len(removed) != 1 || removed[0] != peer {
		t.Errorf("removed handler fired %d times", len(removed))
	}
}

func TestKBucketAddedHandler(t *testing.T) {
	added := 0
	k := NewKBucket(testID(0), KBucketHandlers{
		Added: func(*PeerInfo) { added++ },
	})
	for n := uint64(1); n <= 5; n++ {
		if err := k.Add(testPeerN(n)); err != nil {
			t.Fatal(err)
		}
	}
	if added != 5 {
		t.Errorf("added handler fired %d times, want 5", added)
	}
}

// Filling the table must eventually overflow a frozen bucket and surface
// the ping contract with the bucket's full membership.
func TestKBucketPingOnOverflow(t *testing.T) {
	var pingOld []*PeerInfo
	var pingNew *PeerInfo
	pings := 0
	k := NewKBucket(testID(0), KBucketHandlers{
		Ping: func(old []*PeerInfo, peer *PeerInfo) {
			pings++
			if pingOld == nil {
				pingOld, pingNew = old, peer
			}
		},
	})
	for n := uint64(1); n <= 2000 && pings == 0; n++ {
		if err := k.Add(testPeerN(n)); err != nil {
			t.Fatal(err)
		}
	}
	if pings == 0 {
		t.Fatal("no ping event after 2000 inserts")
	}
	if len(pingOld) != BucketSize {
		t.Errorf("ping carried %d old candidates, want %d", len(pingOld), BucketSize)
	}
	if k.Get(pingNew) != nil {
		t.Error("contended newcomer must not be inserted")
	}
	for _, old := range pingOld {
		if k.Get(old) == nil {
			t.Error("old candidate vanished from the table")
		}
	}
}

// Every leaf's members must share the bit prefix addressing the leaf.
func TestKBucketPrefixInvariant(t *testing.T) {
	k := NewKBucket(testID(0), KBucketHandlers{})
	for n := uint64(1); n <= 500; n++ {
		if err := k.Add(testPeerN(n)); err != nil {
			t.Fatal(err)
		}
	}

	var walk func(node *kbucketNode, depth int, path []byte)
	walk = func(node *kbucketNode, depth int, path []byte) {
		if !node.leaf() {
			walk(node.left, depth+1, append(append([]byte{}, path...), 0))
			walk(node.right, depth+1, append(append([]byte{}, path...), 1))
			return
		}
		if len(node.entries) > BucketSize {
			t.Fatalf("bucket holds %d entries, cap is %d", len(node.entries), BucketSize)
		}
		for _, entry := range node.entries {
			for i, bit := range path {
				if keyBit(entry.key, i) != bit {
					t.Fatalf("entry %v violates bucket prefix at bit %d", entry.peer, i)
				}
			}
		}
	}
	walk(k.root, 0, nil)
}

func TestKBucketClosest(t *testing.T) {
	k := NewKBucket(testID(0), KBucketHandlers{})
	total := 0
	for n := uint64(1); n <= 40; n++ {
		if err := k.Add(testPeerN(n)); err != nil {
			t.Fatal(err)
		}
		total++
	}
	// Overflow may have dropped some candidates; work with what is stored.
	stored := k.GetAll()
	if len(stored) == 0 {
		t.Fatal("empty table")
	}

	target := testID(7)
	closest := k.Closest(target)
	if len(closest) > BucketSize {
		t.Fatalf("closest returned %d peers, cap is %d", len(closest), BucketSize)
	}

	targetKey := routingKey(target)
	for i := 1; i < len(closest); i++ {
		prev := xorDistance(routingKey(closest[i-1].ID), targetKey)
		cur := xorDistance(routingKey(closest[i].ID), targetKey)
		if bytes.Compare(prev, cur) > 0 {
			t.Fatal("closest result not sorted by ascending distance")
		}
	}

	// The result must be exactly the stored peers nearest the target.
	sort.Slice(stored, func(i, j int) bool {
		return bytes.Compare(
			xorDistance(routingKey(stored[i].ID), targetKey),
			xorDistance(routingKey(stored[j].ID), targetKey)) < 0
	})
	want := len(stored)
	if want > BucketSize {
		want = BucketSize
	}
	if len(closest) != want {
		t.Fatalf("closest returned %d peers, want %d", len(closest), want)
	}
	for i := range closest {
		if !bytes.Equal(closest[i].ID, stored[i].ID) {
			t.Fatalf("closest[%d] = %v, want %v", i, closest[i], stored[i])
		}
	}
}

func TestKBucketGetAllCount(t *testing.T) {
	k := NewKBucket(testID(0), KBucketHandlers{})
	for n := uint64(1); n <= 10; n++ {
		if err := k.Add(testPeerN(n)); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(k.GetAll()); got != 10 {
		t.Errorf("GetAll returned %d peers, want 10", got)
	}
	if k.Count() != 10 {
		t.Errorf("Count = %d, want 10", k.Count())
	}
}
