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

import "github.com/ethereum/go-ethereum/metrics"

var (
	peersAddedCounter   = metrics.NewRegisteredCounter("dpt/peers/added", nil)
	peersRemovedCounter = metrics.NewRegisteredCounter("dpt/peers/removed", nil)
	tableSizeGauge      = metrics.NewRegisteredGauge("dpt/table/size", nil)
	pingsSentCounter    = metrics.NewRegisteredCounter("dpt/ping/sent", nil)
	pingsFailedCounter  = metrics.NewRegisteredCounter("dpt/ping/failed", nil)
	bansCounter         = metrics.NewRegisteredCounter("dpt/bans", nil)
	bannedRejects       = metrics.NewRegisteredCounter("dpt/banned/rejects", nil)
	dnsPeersCounter     = metrics.NewRegisteredCounter("dpt/dns/peers", nil)
	refreshRunsCounter  = metrics.NewRegisteredCounter("dpt/refresh/runs", nil)
)
