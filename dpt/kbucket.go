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
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// BucketSize is the maximum number of peers held per k-bucket.
const BucketSize = 16

// ErrMissingID is returned when a peer without a node id is offered to the
// routing table; unidentified peers cannot be placed by XOR distance.
var ErrMissingID = errors.New("peer has no node id")

// KBucketHandlers receive routing-table transitions. Added and Removed are
// observational. Ping is a contract: it delivers the bucket's oldest
// entries together with the contending newcomer, and the receiver decides
// which side stays by calling back Remove/Add. Handlers are invoked outside
// the table lock, so calling back into the table is safe.
type KBucketHandlers struct {
	Added   func(peer *PeerInfo)
	Removed func(peer *PeerInfo)
	Ping    func(oldPeers []*PeerInfo, newPeer *PeerInfo)
}

// kbucketEntry pairs a live peer with its routing key.
type kbucketEntry struct {
	peer *PeerInfo
	key  common.Hash
}

// kbucketNode is a node of the routing tree. Interior nodes carry the two
// children; leaves carry the contact list, ordered oldest first. A leaf
// that does not cover the local key is frozen and never splits again.
type kbucketNode struct {
	left, right *kbucketNode // bit clear / bit set
	entries     []*kbucketEntry
	splittable  bool
}

func (n *kbucketNode) leaf() bool { return n.left == nil }

// KBucket is a Kademlia routing table over 256-bit keys. Keys are derived
// as keccak256 of the 64-byte node id, the same construction go-ethereum
// uses for its node identifiers, so distance is XOR over uniformly
// distributed digests. The tree starts as a single bucket and splits along
// the common-prefix boundary with the owner's key on overflow.
type KBucket struct {
	mu       sync.Mutex
	localKey common.Hash
	root     *kbucketNode

	byID       map[string]*kbucketEntry
	byEndpoint map[string]*kbucketEntry
	byAddress  map[string]*kbucketEntry

	handlers KBucketHandlers
}

// NewKBucket creates a routing table owned by the node with the given
// 64-byte id.
func NewKBucket(localID []byte, handlers KBucketHandlers) *KBucket {
	return &KBucket{
		localKey:   routingKey(localID),
		root:       &kbucketNode{splittable: true},
		byID:       make(map[string]*kbucketEntry),
		byEndpoint: make(map[string]*kbucketEntry),
		byAddress:  make(map[string]*kbucketEntry),
		handlers:   handlers,
	}
}

func routingKey(id []byte) common.Hash {
	return crypto.Keccak256Hash(id)
}

func keyBit(key common.Hash, i int) byte {
	return (key[i/8] >> (7 - uint(i)%8)) & 1
}

// bucketFor descends to the leaf covering key, returning it and its depth.
func (k *KBucket) bucketFor(key common.Hash) (*kbucketNode, int) {
	node, depth := k.root, 0
	for !node.leaf() {
		if keyBit(key, depth) == 0 {
			node = node.left
		} else {
			node = node.right
		}
		depth++
	}
	return node, depth
}

// split divides a full leaf at the given depth. The child not covering the
// local key is frozen so the table stays biased towards the owner's
// neighbourhood, as in the canonical Kademlia design.
func (k *KBucket) split(node *kbucketNode, depth int) {
	left := &kbucketNode{}
	right := &kbucketNode{}
	for _, entry := range node.entries {
		if keyBit(entry.key, depth) == 0 {
			left.entries = append(left.entries, entry)
		} else {
			right.entries = append(right.entries, entry)
		}
	}
	if keyBit(k.localKey, depth) == 0 {
		left.splittable = true
	} else {
		right.splittable = true
	}
	node.left, node.right = left, right
	node.entries = nil
	node.splittable = false
}

// Add offers a peer to the table. A known peer has its stored record
// replaced and is moved to the most-recently-seen end of its bucket. If the
// covering bucket has room the peer is appended; a full
// splittable bucket is split and the insert retried. A full frozen bucket
// triggers the Ping handler with the bucket's entries, oldest first, and
// the newcomer; the handler resolves the contention.
func (k *KBucket) Add(peer *PeerInfo) error {
	if len(peer.ID) == 0 {
		return ErrMissingID
	}
	key := routingKey(peer.ID)

	k.mu.Lock()
	if existing, ok := k.byID[string(peer.ID)]; ok {
		// Refresh: move to the most-recently-seen end.
		node, _ := k.bucketFor(existing.key)
		for i, entry := range node.entries {
			if entry == existing {
				node.entries = append(append(node.entries[:i:i], node.entries[i+1:]...), existing)
				break
			}
		}
		existing.peer = peer
		k.index(existing)
		k.mu.Unlock()
		return nil
	}
	for {
		node, depth := k.bucketFor(key)
		if len(node.entries) < BucketSize {
			entry := &kbucketEntry{peer: peer, key: key}
			node.entries = append(node.entries, entry)
			k.index(entry)
			size := len(k.byID)
			k.mu.Unlock()

			tableSizeGauge.Update(int64(size))
			if k.handlers.Added != nil {
				k.handlers.Added(peer)
			}
			return nil
		}
		if node.splittable {
			k.split(node, depth)
			continue
		}
		oldPeers := make([]*PeerInfo, len(node.entries))
		for i, entry := range node.entries {
			oldPeers[i] = entry.peer
		}
		k.mu.Unlock()

		if k.handlers.Ping != nil {
			k.handlers.Ping(oldPeers, peer)
		}
		return nil
	}
}

func (k *KBucket) index(entry *kbucketEntry) {
	k.byID[string(entry.peer.ID)] = entry
	if entry.peer.Address != "" {
		k.byEndpoint[entry.peer.endpointKey()] = entry
		k.byAddress[entry.peer.Address] = entry
	}
}

func (k *KBucket) lookup(ref *PeerInfo) *kbucketEntry {
	if len(ref.ID) > 0 {
		if entry, ok := k.byID[string(ref.ID)]; ok {
			return entry
		}
	}
	if ref.Address != "" {
		if entry, ok := k.byEndpoint[ref.endpointKey()]; ok {
			return entry
		}
		if entry, ok := k.byAddress[ref.Address]; ok {
			return entry
		}
	}
	return nil
}

// Get returns the stored peer matching ref by id, by address or by
// address:udpPort, or nil when absent.
func (k *KBucket) Get(ref *PeerInfo) *PeerInfo {
	k.mu.Lock()
	defer k.mu.Unlock()
	if entry := k.lookup(ref); entry != nil {
		return entry.peer
	}
	return nil
}

// Remove drops the entry matching ref from the table.
func (k *KBucket) Remove(ref *PeerInfo) {
	k.mu.Lock()
	entry := k.lookup(ref)
	if entry == nil {
		k.mu.Unlock()
		return
	}
	node, _ := k.bucketFor(entry.key)
	for i, e := range node.entries {
		if e == entry {
			node.entries = append(node.entries[:i:i], node.entries[i+1:]...)
			break
		}
	}
	delete(k.byID, string(entry.peer.ID))
	if entry.peer.Address != "" {
		if k.byEndpoint[entry.peer.endpointKey()] == entry {
			delete(k.byEndpoint, entry.peer.endpointKey())
		}
		if k.byAddress[entry.peer.Address] == entry {
			delete(k.byAddress, entry.peer.Address)
		}
	}
	size := len(k.byID)
	k.mu.Unlock()

	tableSizeGauge.Update(int64(size))
	if k.handlers.Removed != nil {
		k.handlers.Removed(entry.peer)
	}
}

// Closest returns up to BucketSize peers ordered by ascending XOR distance
// between their routing key and the key of targetID.
func (k *KBucket) Closest(targetID []byte) []*PeerInfo {
	target := routingKey(targetID)

	k.mu.Lock()
	entries := make([]*kbucketEntry, 0, len(k.byID))
	for _, entry := range k.byID {
		entries = append(entries, entry)
	}
	k.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(xorDistance(entries[i].key, target), xorDistance(entries[j].key, target)) < 0
	})
	if len(entries) > BucketSize {
		entries = entries[:BucketSize]
	}
	peers := make([]*PeerInfo, len(entries))
	for i, entry := range entries {
		peers[i] = entry.peer
	}
	return peers
}

func xorDistance(a, b common.Hash) []byte {
	d := make([]byte, common.HashLength)
	for i := range d {
		d[i] = a[i] ^ b[i]
	}
	return d
}

// GetAll enumerates every live entry, least recently seen first within each
// bucket.
func (k *KBucket) GetAll() []*PeerInfo {
	k.mu.Lock()
	defer k.mu.Unlock()

	var peers []*PeerInfo
	var walk func(node *kbucketNode)
	walk = func(node *kbucketNode) {
		if node.leaf() {
			for _, entry := range node.entries {
				peers = append(peers, entry.peer)
			}
			return
		}
		walk(node.left)
		walk(node.right)
	}
	walk(k.root)
	return peers
}

// Count returns the number of live entries.
func (k *KBucket) Count() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.byID)
}
