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
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
)

// LocalCache is an in-process ICache backed by VictoriaMetrics fastcache.
// fastcache has no native TTL, so expirations are tracked alongside.
type LocalCache struct {
	cache *fastcache.Cache
	ttls  sync.Map // map[string]time.Time
}

const defaultLocalMaxBytes = 16 * 1024 * 1024

func NewLocalCache(maxBytes int) *LocalCache {
	if maxBytes <= 0 {
		maxBytes = defaultLocalMaxBytes
	}
	return &LocalCache{cache: fastcache.New(maxBytes)}
}

func (lc *LocalCache) Get(_ context.Context, key string) (string, bool, error) {
	if exp, ok := lc.ttls.Load(key); ok {
		if time.Now().After(exp.(time.Time)) {
			lc.cache.Del([]byte(key))
			lc.ttls.Delete(key)
			return "", false, nil
		}
	}
	value, ok := lc.cache.HasGet(nil, []byte(key))
	if !ok {
		return "", false, nil
	}
	return string(value), true, nil
}

func (lc *LocalCache) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	lc.cache.Set([]byte(key), []byte(value))
	if expiration > 0 {
		lc.ttls.Store(key, time.Now().Add(expiration))
	} else {
		lc.ttls.Delete(key)
	}
	return nil
}

func (lc *LocalCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		lc.cache.Del([]byte(key))
		lc.ttls.Delete(key)
	}
	return nil
}
