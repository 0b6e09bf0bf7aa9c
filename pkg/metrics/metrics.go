// Copyright 2025 Flowgate Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics holds the prometheus collectors for the lock and save
// paths. Registered on a dedicated registry so /metrics also carries the
// default go/process collectors exactly once.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// LockAcquireTotal counts lock acquisitions by result:
	// acquired, refreshed, contended, denied.
	LockAcquireTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgate_lock_acquire_total",
			Help: "Lock acquire attempts by result",
		},
		[]string{"result"},
	)

	// LockReleaseTotal counts lock releases by result:
	// released, admin_override, expired, denied, not_locked.
	LockReleaseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgate_lock_release_total",
			Help: "Lock release attempts by result",
		},
		[]string{"result"},
	)

	// SaveTotal counts save attempts by result:
	// committed, noop, locked, denied, conflict.
	SaveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgate_save_total",
			Help: "Flow save attempts by result",
		},
		[]string{"result"},
	)

	// CapabilityCacheTotal counts capability cache lookups by outcome: hit, miss.
	CapabilityCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowgate_capability_cache_total",
			Help: "Capability cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// NewRegistry returns the registry served on /metrics.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(LockAcquireTotal, LockReleaseTotal, SaveTotal, CapabilityCacheTotal)
	return registry
}
