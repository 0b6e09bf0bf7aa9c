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

package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/pkg/cache"
	"github.com/observabil/flowgate/pkg/metrics"
)

// CapabilityCache caches resolved Capability sets per (user, resource ref).
// Every cached entry embeds the user's ACL version in its key, so one write
// to the version stamp invalidates every entry for that user at once.
// Grant, revoke and membership writes bump the stamp.
type CapabilityCache struct {
	cache cache.ICache
	ttl   time.Duration
}

const capabilityTTL = 5 * time.Minute

func NewCapabilityCache(c cache.ICache) *CapabilityCache {
	return &CapabilityCache{cache: c, ttl: capabilityTTL}
}

func (cc *CapabilityCache) versionKey(userId string) string {
	return "flowgate:aclver:" + userId
}

func (cc *CapabilityCache) entryKey(userId, version string, ref model.ResourceRef) string {
	return fmt.Sprintf("flowgate:capability:%s:%s:%s:%s", userId, version, ref.ProjectId, ref.FlowId)
}

func (cc *CapabilityCache) version(ctx context.Context, userId string) string {
	version, ok, err := cc.cache.Get(ctx, cc.versionKey(userId))
	if err != nil || !ok {
		return "0"
	}
	return version
}

// Get returns the cached capability set, if present.
func (cc *CapabilityCache) Get(ctx context.Context, userId string, ref model.ResourceRef) (model.Capability, bool) {
	if cc == nil || cc.cache == nil {
		return model.Capability{}, false
	}
	raw, ok, err := cc.cache.Get(ctx, cc.entryKey(userId, cc.version(ctx, userId), ref))
	if err != nil || !ok {
		metrics.CapabilityCacheTotal.WithLabelValues("miss").Inc()
		return model.Capability{}, false
	}
	var capability model.Capability
	if err := json.Unmarshal([]byte(raw), &capability); err != nil {
		return model.Capability{}, false
	}
	metrics.CapabilityCacheTotal.WithLabelValues("hit").Inc()
	return capability, true
}

// Put stores a resolved capability set under the user's current ACL version.
func (cc *CapabilityCache) Put(ctx context.Context, userId string, ref model.ResourceRef, capability model.Capability) {
	if cc == nil || cc.cache == nil {
		return
	}
	raw, err := json.Marshal(capability)
	if err != nil {
		return
	}
	_ = cc.cache.Set(ctx, cc.entryKey(userId, cc.version(ctx, userId), ref), string(raw), cc.ttl)
}

// Invalidate drops every cached capability for the user by moving the ACL
// version stamp forward. Stale entries age out via their TTL.
func (cc *CapabilityCache) Invalidate(ctx context.Context, userId string) {
	if cc == nil || cc.cache == nil {
		return
	}
	stamp := strconv.FormatInt(time.Now().UnixNano(), 36)
	_ = cc.cache.Set(ctx, cc.versionKey(userId), stamp, 0)
}
