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
	"crypto/rand"
	"errors"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethp2p/go-dpt/account"
)

// refreshSlots is the number of slices the refresh interval is divided
// into. Each tick serves the peers whose id falls into the current slot,
// so a full pass over the table takes one whole interval.
const refreshSlots = 10

var (
	// ErrPeerBanned is returned when the target of an AddPeer call is
	// covered by the ban list.
	ErrPeerBanned = errors.New("peer is banned")

	// ErrDestroyed is returned for operations issued after Destroy.
	ErrDestroyed = errors.New("peer table destroyed")

	errNoServer = errors.New("discovery server is required")
)

// DPT is the distributed peer table coordinator. It derives its node
// identity from a secp256k1 private key, owns the k-bucket routing table
// and ban list, and keeps the table populated through liveness probes,
// periodic findneighbours sweeps and optional DNS ingest.
//
// All table state is guarded internally; the exported methods are safe for
// concurrent use.
type DPT struct {
	cfg     Config
	id      []byte // 64-byte local node id
	server  Server
	dns     DNSClient
	kbucket *KBucket
	banlist *BanList

	// probing tracks peers with a staged probe in flight so duplicate
	// batch entries are not pinged twice.
	probing mapset.Set[string]

	mu          sync.Mutex
	refreshSlot int
	bound       bool
	destroyed   bool
	stopCh      chan struct{}
	wg          sync.WaitGroup

	peerAddedFeed   event.FeedOf[*PeerInfo]
	peerRemovedFeed event.FeedOf[*PeerInfo]
	peerNewFeed     event.FeedOf[*PeerInfo]
	errFeed         event.FeedOf[error]
	listeningFeed   event.FeedOf[struct{}]
	closeFeed       event.FeedOf[struct{}]
}

// New creates a peer table coordinator from a 32-byte secp256k1 private
// key. The key is used for node-id derivation only.
func New(privateKey []byte, cfg Config) (*DPT, error) {
	id, err := account.PrivateToPublic(privateKey)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if cfg.Server == nil {
		return nil, errNoServer
	}
	d := &DPT{
		cfg:     cfg,
		id:      id,
		server:  cfg.Server,
		dns:     cfg.DNSClient,
		banlist: NewBanList(),
		probing: mapset.NewSet[string](),
		stopCh:  make(chan struct{}),
	}
	if d.dns == nil && cfg.ShouldGetDNSPeers {
		d.dns = NewDNSDiscovery(cfg.DNSAddr)
	}
	d.kbucket = NewKBucket(id, KBucketHandlers{
		Added: func(peer *PeerInfo) {
			peersAddedCounter.Inc(1)
			d.peerAddedFeed.Send(peer)
		},
		Removed: func(peer *PeerInfo) {
			peersRemovedCounter.Inc(1)
			d.peerRemovedFeed.Send(peer)
		},
		Ping: func(oldPeers []*PeerInfo, newPeer *PeerInfo) {
			d.goAttach(func() { d.resolveBucketContention(oldPeers, newPeer) })
		},
	})
	return d, nil
}

// ID returns the 64-byte local node id.
func (d *DPT) ID() []byte { return d.id }

// Endpoint returns the advertised local endpoint, if configured.
func (d *DPT) Endpoint() *PeerInfo { return d.cfg.Endpoint }

// Bind opens the discovery server, starts the refresh loop and begins
// consuming peer batches from the server. It emits the listening event on
// success.
func (d *DPT) Bind() error {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return ErrDestroyed
	}
	if d.bound {
		d.mu.Unlock()
		return errors.New("already bound")
	}
	d.bound = true
	d.mu.Unlock()

	if err := d.server.Bind(); err != nil {
		return err
	}
	d.wg.Add(2)
	go d.refreshLoop()
	go d.peersLoop()

	log.Info("Peer table listening", "id", hexutil.Encode(d.id[:8]))
	d.listeningFeed.Send(struct{}{})
	return nil
}

// Destroy cancels the refresh loop and tears down the server. In-flight
// probes may complete but no longer mutate the table. It emits the close
// event.
func (d *DPT) Destroy() error {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return nil
	}
	d.destroyed = true
	d.mu.Unlock()

	close(d.stopCh)
	d.wg.Wait()
	err := d.server.Close()
	d.closeFeed.Send(struct{}{})
	return err
}

func (d *DPT) isDestroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

// goAttach runs fn on a tracked goroutine unless the table is already
// destroyed, so Destroy can wait for every background task.
func (d *DPT) goAttach(fn func()) {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		fn()
	}()
}

// AddPeer verifies a candidate with a liveness probe and inserts it into
// the routing table. Banned peers are rejected with ErrPeerBanned, known
// peers are returned as stored, and candidates that fail the probe are
// banned for the default duration with the probe error propagated.
func (d *DPT) AddPeer(ctx context.Context, peer *PeerInfo) (*PeerInfo, error) {
	if d.banlist.Has(peer) {
		bannedRejects.Inc(1)
		return nil, ErrPeerBanned
	}
	if existing := d.kbucket.Get(peer); existing != nil {
		return existing, nil
	}

	confirmed, err := d.ping(ctx, peer)
	if err != nil {
		d.banlist.Add(peer, 0)
		return nil, err
	}
	if d.isDestroyed() {
		return nil, ErrDestroyed
	}
	d.peerNewFeed.Send(confirmed)
	if err := d.kbucket.Add(confirmed); err != nil {
		return nil, err
	}
	return confirmed, nil
}

func (d *DPT) ping(ctx context.Context, peer *PeerInfo) (*PeerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	pingsSentCounter.Inc(1)
	confirmed, err := d.server.Ping(ctx, peer)
	if err != nil {
		pingsFailedCounter.Inc(1)
		return nil, err
	}
	return confirmed, nil
}

// Bootstrap seeds the table with a known peer and, when neighbour lookups
// are enabled, asks it for nodes close to the local id. Failures are
// emitted on the error feed and swallowed.
func (d *DPT) Bootstrap(ctx context.Context, peer *PeerInfo) {
	confirmed, err := d.AddPeer(ctx, peer)
	if err != nil {
		log.Debug("Bootstrap peer rejected", "peer", peer, "err", err)
		d.errFeed.Send(err)
		return
	}
	if d.cfg.ShouldFindNeighbours {
		d.server.FindNeighbours(confirmed, d.id)
	}
}

// resolveBucketContention handles the k-bucket ping contract: every old
// candidate is probed concurrently, stale ones are banned and evicted, and
// the newcomer is admitted only if at least one slot was freed. When the
// whole bucket answers, the newcomer is banned instead, per Kademlia's
// preference for long-lived peers.
func (d *DPT) resolveBucketContention(oldPeers []*PeerInfo, newPeer *PeerInfo) {
	if d.banlist.Has(newPeer) {
		return
	}
	results := make([]error, len(oldPeers))
	var wg sync.WaitGroup
	for i, peer := range oldPeers {
		wg.Add(1)
		go func(i int, peer *PeerInfo) {
			defer wg.Done()
			_, err := d.ping(context.Background(), peer)
			results[i] = err
		}(i, peer)
	}
	wg.Wait()

	if d.isDestroyed() {
		return
	}
	var firstErr error
	evicted := 0
	for i, err := range results {
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		d.banlist.Add(oldPeers[i], 0)
		d.kbucket.Remove(oldPeers[i])
		evicted++
	}
	if evicted > 0 {
		log.Debug("Evicted stale peers", "count", evicted, "err", firstErr)
		if err := d.kbucket.Add(newPeer); err != nil {
			d.errFeed.Send(err)
		}
	} else {
		d.banlist.Add(newPeer, 0)
	}
}

// GetPeer returns the stored peer matching ref by id, address or
// address:udpPort, or nil.
func (d *DPT) GetPeer(ref *PeerInfo) *PeerInfo {
	return d.kbucket.Get(ref)
}

// GetPeers enumerates all live table entries.
func (d *DPT) GetPeers() []*PeerInfo {
	return d.kbucket.GetAll()
}

// GetClosestPeers returns up to BucketSize peers closest to the given id
// by XOR distance.
func (d *DPT) GetClosestPeers(id []byte) []*PeerInfo {
	return d.kbucket.Closest(id)
}

// RemovePeer drops the matching entry from the table.
func (d *DPT) RemovePeer(ref *PeerInfo) {
	d.kbucket.Remove(ref)
}

// BanPeer denies a peer for maxAge (the default duration when zero) and
// removes it from the table.
func (d *DPT) BanPeer(peer *PeerInfo, maxAge time.Duration) {
	d.banlist.Add(peer, maxAge)
	d.kbucket.Remove(peer)
}

// GetDNSPeers fetches half the configured refresh quantity from the DNS
// node lists.
func (d *DPT) GetDNSPeers(ctx context.Context) ([]*PeerInfo, error) {
	if d.dns == nil {
		return nil, nil
	}
	return d.dns.GetPeers(ctx, d.cfg.DNSRefreshQuantity/2, d.cfg.DNSNetworks)
}

func (d *DPT) refreshLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.RefreshInterval / refreshSlots)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.Refresh()
		}
	}
}

// Refresh advances the rotating slot counter and serves one refresh tick:
// neighbour probes with a fresh random target for the peers in the current
// slot, plus a staged DNS batch when enabled. A failed DNS lookup is
// logged and does not disable further refreshes.
func (d *DPT) Refresh() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.refreshSlot = (d.refreshSlot + 1) % refreshSlots
	slot := d.refreshSlot
	d.mu.Unlock()

	refreshRunsCounter.Inc(1)
	peers := d.GetPeers()
	log.Debug("Refreshing peer table", "slot", slot, "peers", len(peers))

	if d.cfg.ShouldFindNeighbours {
		for _, peer := range peers {
			if len(peer.ID) == 0 || int(peer.ID[0])%refreshSlots != slot {
				continue
			}
			d.server.FindNeighbours(peer, randomTarget())
		}
	}
	if d.cfg.ShouldGetDNSPeers {
		dnsPeers, err := d.GetDNSPeers(context.Background())
		if err != nil {
			log.Debug("DNS refresh failed", "err", err)
			return
		}
		d.addPeerBatch(dnsPeers)
	}
}

// addPeerBatch stages a batch of candidates, spacing the probes by the
// ingest delay so a large batch cannot saturate the server. Probe errors
// are reported on the error feed; the batch never short-circuits.
func (d *DPT) addPeerBatch(peers []*PeerInfo) {
	if len(peers) == 0 {
		return
	}
	d.goAttach(func() {
		for i, peer := range peers {
			if i > 0 {
				select {
				case <-d.stopCh:
					return
				case <-time.After(d.cfg.IngestDelay):
				}
			}
			if !d.probing.Add(peer.key()) {
				continue
			}
			peer := peer
			d.goAttach(func() {
				defer d.probing.Remove(peer.key())
				if _, err := d.AddPeer(context.Background(), peer); err != nil {
					d.errFeed.Send(err)
				}
			})
		}
	})
}

func (d *DPT) peersLoop() {
	defer d.wg.Done()

	ch := make(chan []*PeerInfo, 16)
	sub := d.server.SubscribePeers(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case <-d.stopCh:
			return
		case err := <-sub.Err():
			if err != nil {
				d.errFeed.Send(err)
			}
			return
		case batch := <-ch:
			// Without neighbour lookups these batches would mostly
			// duplicate work against the same targets.
			if d.cfg.ShouldFindNeighbours {
				d.addPeerBatch(batch)
			}
		}
	}
}

func randomTarget() []byte {
	target := make([]byte, NodeIDLength)
	rand.Read(target)
	return target
}

// SubscribePeerAdded delivers peers entering the routing table.
func (d *DPT) SubscribePeerAdded(ch chan<- *PeerInfo) event.Subscription {
	return d.peerAddedFeed.Subscribe(ch)
}

// SubscribePeerRemoved delivers peers leaving the routing table.
func (d *DPT) SubscribePeerRemoved(ch chan<- *PeerInfo) event.Subscription {
	return d.peerRemovedFeed.Subscribe(ch)
}

// SubscribePeerNew delivers peers at their first confirmed liveness,
// before insertion.
func (d *DPT) SubscribePeerNew(ch chan<- *PeerInfo) event.Subscription {
	return d.peerNewFeed.Subscribe(ch)
}

// SubscribeErrors delivers asynchronous faults from refresh and ingest.
func (d *DPT) SubscribeErrors(ch chan<- error) event.Subscription {
	return d.errFeed.Subscribe(ch)
}

// SubscribeListening signals a successful Bind.
func (d *DPT) SubscribeListening(ch chan<- struct{}) event.Subscription {
	return d.listeningFeed.Subscribe(ch)
}

// SubscribeClose signals teardown.
func (d *DPT) SubscribeClose(ch chan<- struct{}) event.Subscription {
	return d.closeFeed.Subscribe(ch)
}
