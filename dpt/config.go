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

import "time"

// Config holds the coordinator configuration. Start from DefaultConfig and
// override fields as needed; zero durations and quantities resolve to the
// defaults below.
type Config struct {
	// Server is the UDP discovery transport. Required.
	Server Server

	// ShouldFindNeighbours runs findneighbours probes during refresh and
	// admits peer batches surfaced by the server.
	ShouldFindNeighbours bool

	// ShouldGetDNSPeers ingests peers from DNS node lists during refresh.
	ShouldGetDNSPeers bool

	// DNSClient overrides the DNS peer source. When nil and
	// ShouldGetDNSPeers is set, a resolver against DNSAddr is built.
	DNSClient DNSClient

	// DNSRefreshQuantity is the requested peer count per DNS refresh; half
	// of it is fetched each round.
	DNSRefreshQuantity int

	// DNSNetworks lists the enrtree domains to query.
	DNSNetworks []string

	// DNSAddr is the DNS resolver endpoint.
	DNSAddr string

	// RefreshInterval is the base refresh period. It is divided into ten
	// slots so every table entry is probed roughly once per interval.
	RefreshInterval time.Duration

	// Timeout bounds each liveness probe, forwarded to the server as a
	// context deadline.
	Timeout time.Duration

	// Endpoint is the advertised local endpoint, passed through to server
	// implementations that announce it.
	Endpoint *PeerInfo

	// IngestDelay spaces the probes of a staged peer batch.
	IngestDelay time.Duration
}

// DefaultConfig holds the stock coordinator settings.
var DefaultConfig = Config{
	ShouldFindNeighbours: true,
	DNSRefreshQuantity:   25,
	DNSAddr:              "8.8.8.8",
	RefreshInterval:      60 * time.Second,
	Timeout:              10 * time.Second,
	IngestDelay:          200 * time.Millisecond,
}

// withDefaults resolves unset fields against DefaultConfig.
func (cfg Config) withDefaults() Config {
	if cfg.DNSRefreshQuantity == 0 {
		cfg.DNSRefreshQuantity = DefaultConfig.DNSRefreshQuantity
	}
	if cfg.DNSAddr == "" {
		cfg.DNSAddr = DefaultConfig.DNSAddr
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = DefaultConfig.RefreshInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig.Timeout
	}
	if cfg.IngestDelay == 0 {
		cfg.IngestDelay = DefaultConfig.IngestDelay
	}
	return cfg
}
