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
	"testing"
	"time"

	"github.com/observabil/flowgate/internal/errs"
	"github.com/observabil/flowgate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLockFixture(t *testing.T) (*LockService, *fakeFlowRepo) {
	t.Helper()
	users := newFakeUserRepo(
		user("super", model.UserLevelSuperAdmin),
		user("alice", model.UserLevelUser),
		user("bob", model.UserLevelUser),
		user("carol", model.UserLevelUser),
	)
	members := newFakeMemberRepo(
		member("p1", "alice", true, true, true, false, false),
		member("p1", "bob", true, true, true, false, false),
		member("p1", "carol", true, false, false, false, false),
	)
	flows := newFakeFlowRepo(&model.Flow{FlowId: "f1", ProjectId: "p1", Name: "etl"})
	resolver := newResolver(users, members, newFakePermissionRepo())
	return NewLockService(flows, resolver, nil), flows
}

func TestLockService_AcquireAndRelease(t *testing.T) {
	svc, _ := newLockFixture(t)
	ctx := context.Background()

	state, err := svc.Acquire(ctx, "alice", "f1")
	require.NoError(t, err)
	assert.True(t, state.Locked)
	require.NotNil(t, state.LockedBy)
	assert.Equal(t, "alice", *state.LockedBy)

	state, err = svc.Release(ctx, "alice", "f1")
	require.NoError(t, err)
	assert.False(t, state.Locked)
}

func TestLockService_ReacquireByHolderRefreshes(t *testing.T) {
	svc, flows := newLockFixture(t)
	ctx := context.Background()

	_, err := svc.Acquire(ctx, "alice", "f1")
	require.NoError(t, err)
	first, err := flows.GetFlow(ctx, "f1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.Acquire(ctx, "alice", "f1")
	require.NoError(t, err)

	second, err := flows.GetFlow(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, second.LockUpdatedAt.After(*first.LockUpdatedAt), "re-acquire refreshes the timestamp")
}

func TestLockService_AcquireContended(t *testing.T) {
	svc, _ := newLockFixture(t)
	ctx := context.Background()

	_, err := svc.Acquire(ctx, "alice", "f1")
	require.NoError(t, err)

	_, err = svc.Acquire(ctx, "bob", "f1")
	require.Error(t, err)
	lockErr, ok := errs.IsAlreadyLocked(err)
	require.True(t, ok)
	assert.Equal(t, "f1", lockErr.FlowId)
	assert.Equal(t, "alice", lockErr.Holder)
	assert.False(t, lockErr.Since.IsZero())
}

func TestLockService_AcquireWithoutEdit(t *testing.T) {
	svc, _ := newLockFixture(t)

	_, err := svc.Acquire(context.Background(), "carol", "f1")
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestLockService_ReleaseByNonHolder(t *testing.T) {
	svc, _ := newLockFixture(t)
	ctx := context.Background()

	_, err := svc.Acquire(ctx, "alice", "f1")
	require.NoError(t, err)

	_, err = svc.Release(ctx, "bob", "f1")
	assert.ErrorIs(t, err, errs.ErrNotLockHolder)
}

func TestLockService_SuperAdminOverride(t *testing.T) {
	svc, flows := newLockFixture(t)
	ctx := context.Background()

	_, err := svc.Acquire(ctx, "alice", "f1")
	require.NoError(t, err)

	state, err := svc.Release(ctx, "super", "f1")
	require.NoError(t, err)
	assert.False(t, state.Locked)

	flow, err := flows.GetFlow(ctx, "f1")
	require.NoError(t, err)
	assert.False(t, flow.Locked)
	assert.Nil(t, flow.LockedBy)
}

func TestLockService_ProjectAdminOverride(t *testing.T) {
	users := newFakeUserRepo(
		user("alice", model.UserLevelUser),
		user("dana", model.UserLevelUser),
	)
	members := newFakeMemberRepo(
		member("p1", "alice", true, true, true, false, false),
		member("p1", "dana", true, true, true, true, false),
	)
	flows := newFakeFlowRepo(&model.Flow{FlowId: "f1", ProjectId: "p1", Name: "etl"})
	svc := NewLockService(flows, newResolver(users, members, newFakePermissionRepo()), nil)
	ctx := context.Background()

	_, err := svc.Acquire(ctx, "alice", "f1")
	require.NoError(t, err)

	state, err := svc.Release(ctx, "dana", "f1")
	require.NoError(t, err)
	assert.False(t, state.Locked)
}

func TestLockService_ReleaseUnlocked(t *testing.T) {
	svc, _ := newLockFixture(t)

	_, err := svc.Release(context.Background(), "alice", "f1")
	assert.ErrorIs(t, err, errs.ErrNotLocked)
}

func TestLockService_Inspect(t *testing.T) {
	svc, _ := newLockFixture(t)
	ctx := context.Background()

	state, err := svc.Inspect(ctx, "carol", "f1")
	require.NoError(t, err)
	assert.False(t, state.Locked)

	_, err = svc.Acquire(ctx, "alice", "f1")
	require.NoError(t, err)

	state, err = svc.Inspect(ctx, "carol", "f1")
	require.NoError(t, err)
	assert.True(t, state.Locked)
	require.NotNil(t, state.LockedBy)
	assert.Equal(t, "alice", *state.LockedBy)
}

func TestLockService_SweepExpired(t *testing.T) {
	svc, flows := newLockFixture(t)
	ctx := context.Background()

	stale := time.Now().Add(-time.Hour)
	holder := "alice"
	require.NoError(t, flows.CreateFlow(ctx, &model.Flow{
		FlowId: "f2", ProjectId: "p1", Locked: true, LockedBy: &holder, LockUpdatedAt: &stale,
	}))
	_, err := svc.Acquire(ctx, "alice", "f1")
	require.NoError(t, err)

	released, err := svc.SweepExpired(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	fresh, err := flows.GetFlow(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, fresh.Locked, "a fresh lock survives the sweep")

	swept, err := flows.GetFlow(ctx, "f2")
	require.NoError(t, err)
	assert.False(t, swept.Locked)
}
