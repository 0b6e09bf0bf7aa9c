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

package cache

import (
	"context"
	"time"
)

// TieredCache layers a LocalCache in front of a remote ICache. Reads fall
// through local to remote and backfill local; writes and deletes hit both.
// The local entry carries a shorter, bounded TTL so a stale local copy
// converges to the remote value without coordination. Non-expiring keys get
// the bound too; another replica may rewrite them remotely at any time.
type TieredCache struct {
	local         *LocalCache
	remote        ICache
	localTTLRatio float64
}

const maxLocalTTL = time.Minute

func NewTieredCache(local *LocalCache, remote ICache, localTTLRatio float64) *TieredCache {
	if localTTLRatio <= 0 || localTTLRatio > 1 {
		localTTLRatio = 0.5
	}
	return &TieredCache{
		local:         local,
		remote:        remote,
		localTTLRatio: localTTLRatio,
	}
}

func (tc *TieredCache) Get(ctx context.Context, key string) (string, bool, error) {
	if value, ok, err := tc.local.Get(ctx, key); err == nil && ok {
		return value, true, nil
	}
	if tc.remote == nil {
		return "", false, nil
	}
	value, ok, err := tc.remote.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	_ = tc.local.Set(ctx, key, value, tc.localTTL(0))
	return value, true, nil
}

func (tc *TieredCache) localTTL(expiration time.Duration) time.Duration {
	ttl := time.Duration(float64(expiration) * tc.localTTLRatio)
	if ttl <= 0 || ttl > maxLocalTTL {
		return maxLocalTTL
	}
	return ttl
}

func (tc *TieredCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if err := tc.local.Set(ctx, key, value, tc.localTTL(expiration)); err != nil {
		return err
	}
	if tc.remote == nil {
		return nil
	}
	return tc.remote.Set(ctx, key, value, expiration)
}

func (tc *TieredCache) Del(ctx context.Context, keys ...string) error {
	if err := tc.local.Del(ctx, keys...); err != nil {
		return err
	}
	if tc.remote == nil {
		return nil
	}
	return tc.remote.Del(ctx, keys...)
}
