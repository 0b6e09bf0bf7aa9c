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

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/observabil/flowgate/internal/errs"
	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/internal/repo"
	"github.com/observabil/flowgate/pkg/log"
	"github.com/observabil/flowgate/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// LockEvent is published on the flow's lock channel whenever lock state
// changes, and relayed to websocket subscribers.
type LockEvent struct {
	FlowId string    `json:"flowId"`
	Event  string    `json:"event"` // locked, unlocked
	UserId string    `json:"userId"`
	At     time.Time `json:"at"`
}

// LockChannel is the redis pub/sub channel carrying lock events for one flow.
func LockChannel(flowId string) string {
	return fmt.Sprintf("flowgate:lock:%s", flowId)
}

// LockService owns flow lock transitions. Acquire and release resolve
// capabilities first, then race on a guarded database update so two
// concurrent acquires settle in the store.
type LockService struct {
	flowRepo repo.IFlowRepository
	resolver *RoleResolver
	rdb      *redis.Client
}

func NewLockService(flowRepo repo.IFlowRepository, resolver *RoleResolver, rdb *redis.Client) *LockService {
	return &LockService{flowRepo: flowRepo, resolver: resolver, rdb: rdb}
}

// Acquire takes the edit lock on flowId for userId. Requires edit
// capability. Re-acquiring a held lock refreshes its timestamp and
// succeeds. A foreign holder yields AlreadyLockedError.
func (s *LockService) Acquire(ctx context.Context, userId, flowId string) (*model.LockState, error) {
	flow, err := s.flowRepo.GetFlow(ctx, flowId)
	if err != nil {
		return nil, err
	}
	cap, err := s.resolver.Capability(ctx, userId, model.ResourceRef{ProjectId: flow.ProjectId, FlowId: flowId})
	if err != nil {
		return nil, err
	}
	if !cap.CanEdit {
		metrics.LockAcquireTotal.WithLabelValues("denied").Inc()
		return nil, errs.ErrPermissionDenied
	}

	refreshed := flow.Locked && flow.LockedBy != nil && *flow.LockedBy == userId

	now := time.Now()
	ok, err := s.flowRepo.TryAcquire(ctx, flowId, userId, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race or the lock was already foreign; read back the
		// holder for the error payload.
		current, err := s.flowRepo.GetFlow(ctx, flowId)
		if err != nil {
			return nil, err
		}
		metrics.LockAcquireTotal.WithLabelValues("contended").Inc()
		holder := ""
		since := now
		if current.LockedBy != nil {
			holder = *current.LockedBy
		}
		if current.LockUpdatedAt != nil {
			since = *current.LockUpdatedAt
		}
		return nil, &errs.AlreadyLockedError{FlowId: flowId, Holder: holder, Since: since}
	}

	if refreshed {
		metrics.LockAcquireTotal.WithLabelValues("refreshed").Inc()
	} else {
		metrics.LockAcquireTotal.WithLabelValues("acquired").Inc()
	}
	s.publish(ctx, LockEvent{FlowId: flowId, Event: "locked", UserId: userId, At: now})
	return &model.LockState{Locked: true, LockedBy: &userId, Since: &now}, nil
}

// Release drops the lock on flowId. The holder may always release; a user
// holding manage-permissions or project-admin on the flow's project (which
// includes SUPER_ADMIN) may force-release any lock. Everyone else gets
// ErrNotLockHolder. Releasing an unlocked flow yields ErrNotLocked.
func (s *LockService) Release(ctx context.Context, userId, flowId string) (*model.LockState, error) {
	flow, err := s.flowRepo.GetFlow(ctx, flowId)
	if err != nil {
		return nil, err
	}
	if !flow.Locked {
		metrics.LockReleaseTotal.WithLabelValues("not_locked").Inc()
		return nil, errs.ErrNotLocked
	}

	isHolder := flow.LockedBy != nil && *flow.LockedBy == userId
	if !isHolder {
		cap, err := s.resolver.Capability(ctx, userId, model.ResourceRef{ProjectId: flow.ProjectId, FlowId: flowId})
		if err != nil {
			return nil, err
		}
		if !cap.CanManagePermissions && !cap.IsProjectAdmin {
			metrics.LockReleaseTotal.WithLabelValues("denied").Inc()
			return nil, errs.ErrNotLockHolder
		}
	}

	ok, err := s.flowRepo.ReleaseLock(ctx, flowId, userId, isHolder)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The lock moved between read and update. Treat as not locked.
		metrics.LockReleaseTotal.WithLabelValues("not_locked").Inc()
		return nil, errs.ErrNotLocked
	}

	if isHolder {
		metrics.LockReleaseTotal.WithLabelValues("released").Inc()
	} else {
		metrics.LockReleaseTotal.WithLabelValues("admin_override").Inc()
	}
	s.publish(ctx, LockEvent{FlowId: flowId, Event: "unlocked", UserId: userId, At: time.Now()})
	return &model.LockState{Locked: false}, nil
}

// Inspect returns the current lock state without touching it. Requires
// read capability.
func (s *LockService) Inspect(ctx context.Context, userId, flowId string) (*model.LockState, error) {
	flow, err := s.flowRepo.GetFlow(ctx, flowId)
	if err != nil {
		return nil, err
	}
	cap, err := s.resolver.Capability(ctx, userId, model.ResourceRef{ProjectId: flow.ProjectId, FlowId: flowId})
	if err != nil {
		return nil, err
	}
	if !cap.CanRead {
		return nil, errs.ErrPermissionDenied
	}
	return &model.LockState{Locked: flow.Locked, LockedBy: flow.LockedBy, Since: flow.LockUpdatedAt}, nil
}

// SweepExpired force-releases locks idle longer than ttl and publishes an
// unlock event for each. Run from cron when lock TTL is enabled.
func (s *LockService) SweepExpired(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	released, err := s.flowRepo.SweepExpired(ctx, cutoff)
	if err != nil {
		return len(released), err
	}
	for _, flowId := range released {
		metrics.LockReleaseTotal.WithLabelValues("expired").Inc()
		s.publish(ctx, LockEvent{FlowId: flowId, Event: "unlocked", UserId: "", At: time.Now()})
	}
	if len(released) > 0 {
		log.Infof("lock sweep released %d expired locks", len(released))
	}
	return len(released), nil
}

// Subscribe opens a pub/sub subscription for one flow's lock events. The
// caller owns the returned subscription and must Close it.
func (s *LockService) Subscribe(ctx context.Context, flowId string) *redis.PubSub {
	return s.rdb.Subscribe(ctx, LockChannel(flowId))
}

func (s *LockService) publish(ctx context.Context, ev LockEvent) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, LockChannel(ev.FlowId), payload).Err(); err != nil {
		log.Warnf("publish lock event for flow %s failed: %v", ev.FlowId, err)
	}
}
