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
	"net"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p/dnsdisc"
	"github.com/ethereum/go-ethereum/p2p/enode"
)

// DNSClient yields peers drawn from signed DNS node lists (EIP-1459).
type DNSClient interface {
	// GetPeers returns up to max verified peers from the given enrtree
	// domains.
	GetPeers(ctx context.Context, max int, networks []string) ([]*PeerInfo, error)
}

// DNSDiscovery resolves enrtree domains through go-ethereum's dnsdisc
// client, verifying every record against the tree's signing key.
type DNSDiscovery struct {
	client *dnsdisc.Client
}

// NewDNSDiscovery creates a DNS peer source. A non-empty serverAddress
// routes all lookups through that resolver instead of the system one.
func NewDNSDiscovery(serverAddress string) *DNSDiscovery {
	var cfg dnsdisc.Config
	if serverAddress != "" {
		cfg.Resolver = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, net.JoinHostPort(serverAddress, "53"))
			},
		}
	}
	return &DNSDiscovery{client: dnsdisc.NewClient(cfg)}
}

// GetPeers walks the configured trees and collects up to max peers carrying
// an IP address; the UDP port is not checked. The walk stops early when ctx
// is done.
func (d *DNSDiscovery) GetPeers(ctx context.Context, max int, networks []string) ([]*PeerInfo, error) {
	if max <= 0 || len(networks) == 0 {
		return nil, nil
	}
	it, err := d.client.NewIterator(networks...)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	peers := make([]*PeerInfo, 0, max)
	for len(peers) < max && ctx.Err() == nil && it.Next() {
		peer := enodeToPeer(it.Node())
		if peer == nil {
			continue
		}
		peers = append(peers, peer)
	}
	dnsPeersCounter.Inc(int64(len(peers)))
	log.Debug("DNS peer lookup finished", "requested", max, "found", len(peers))
	return peers, nil
}

// enodeToPeer converts a verified ENR into the table's identity record.
// Records without an IP endpoint are not dialable and are dropped.
func enodeToPeer(n *enode.Node) *PeerInfo {
	if n == nil || n.Pubkey() == nil || n.IP() == nil {
		return nil
	}
	return &PeerInfo{
		ID:      crypto.FromECDSAPub(n.Pubkey())[1:],
		Address: n.IP().String(),
		UDPPort: uint16(n.UDP()),
		TCPPort: uint16(n.TCP()),
	}
}
