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
	"gorm.io/datatypes"
)

func newFlowFixture(t *testing.T) (*FlowService, *fakeFlowRepo) {
	t.Helper()
	users := newFakeUserRepo(
		user("alice", model.UserLevelUser),
		user("bob", model.UserLevelUser),
		user("runner", model.UserLevelUser),
	)
	members := newFakeMemberRepo(
		member("p1", "alice", true, true, true, false, false),
		member("p1", "bob", true, true, true, false, false),
	)
	perms := newFakePermissionRepo(
		model.ResourcePermission{GranteeUserId: "runner", ResourceId: "f1", ResourceType: model.ResourceTypeFlow, PermissionType: model.PermissionRead},
		model.ResourcePermission{GranteeUserId: "runner", ResourceId: "f1", ResourceType: model.ResourceTypeFlow, PermissionType: model.PermissionRun},
	)
	flows := newFakeFlowRepo(&model.Flow{
		FlowId:    "f1",
		ProjectId: "p1",
		Name:      "etl",
		Data:      datatypes.JSON(`{"nodes":[{"id":"a"}],"edges":[]}`),
	})
	resolver := newResolver(users, members, perms)
	return NewFlowService(flows, perms, resolver), flows
}

func strPtr(s string) *string { return &s }

func TestFlowService_SaveCommits(t *testing.T) {
	svc, flows := newFlowFixture(t)
	ctx := context.Background()

	read, err := svc.Save(ctx, "alice", "f1", &model.SaveFlowReq{
		Name: strPtr("etl-v2"),
		Data: datatypes.JSON(`{"nodes":[{"id":"a"},{"id":"b"}],"edges":[]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "etl-v2", read.Name)
	assert.Equal(t, int64(1), read.Revision)

	stored, err := flows.GetFlow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Revision)
}

func TestFlowService_SaveNoopKeepsRevision(t *testing.T) {
	svc, _ := newFlowFixture(t)

	// Same document, different key order and whitespace.
	read, err := svc.Save(context.Background(), "alice", "f1", &model.SaveFlowReq{
		Data: datatypes.JSON(`{ "edges": [], "nodes": [ {"id": "a"} ] }`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), read.Revision, "structural no-op must not bump the revision")
}

func TestFlowService_SaveDeniedWithoutEdit(t *testing.T) {
	svc, _ := newFlowFixture(t)

	_, err := svc.Save(context.Background(), "runner", "f1", &model.SaveFlowReq{Name: strPtr("x")})
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestFlowService_SaveBlockedByForeignLock(t *testing.T) {
	svc, flows := newFlowFixture(t)
	ctx := context.Background()

	holder := "bob"
	now := time.Now()
	flow, err := flows.GetFlow(ctx, "f1")
	require.NoError(t, err)
	flow.Locked = true
	flow.LockedBy = &holder
	flow.LockUpdatedAt = &now
	require.NoError(t, flows.CreateFlow(ctx, flow))

	_, err = svc.Save(ctx, "alice", "f1", &model.SaveFlowReq{Name: strPtr("x")})
	assert.ErrorIs(t, err, errs.ErrLockedByOther)

	// The lock rejects before permissions are consulted.
	_, err = svc.Save(ctx, "runner", "f1", &model.SaveFlowReq{Name: strPtr("x")})
	assert.ErrorIs(t, err, errs.ErrLockedByOther)

	// The holder saves through their own lock.
	_, err = svc.Save(ctx, "bob", "f1", &model.SaveFlowReq{Name: strPtr("x")})
	require.NoError(t, err)
}

func TestFlowService_SaveRevisionConflict(t *testing.T) {
	svc, flows := newFlowFixture(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "bob", "f1", &model.SaveFlowReq{Name: strPtr("theirs")})
	require.NoError(t, err)

	// A writer holding the pre-commit revision loses the guarded update.
	ok, err := flows.CommitContent(ctx, "f1", 0, map[string]any{"name": "mine"})
	require.NoError(t, err)
	assert.False(t, ok, "stale revision must not commit")
}

func TestFlowService_GetFlowStampsCapabilities(t *testing.T) {
	svc, _ := newFlowFixture(t)

	read, err := svc.GetFlow(context.Background(), "runner", "f1")
	require.NoError(t, err)
	assert.True(t, read.Permissions.CanRun)
	assert.False(t, read.Permissions.CanEdit)
}

func TestFlowService_GetFlowDenied(t *testing.T) {
	svc, _ := newFlowFixture(t)
	users := []string{"ghost"}

	for _, u := range users {
		_, err := svc.GetFlow(context.Background(), u, "f1")
		assert.ErrorIs(t, err, errs.ErrPermissionDenied)
	}
}

func TestFlowService_CheckRun(t *testing.T) {
	svc, _ := newFlowFixture(t)
	ctx := context.Background()

	ok, err := svc.CheckRun(ctx, "runner", "f1")
	require.NoError(t, err)
	assert.True(t, ok, "RUN grant without WRITE still allows run")

	ok, err = svc.CheckRun(ctx, "ghost", "f1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlowService_DeleteFlowRevokesGrants(t *testing.T) {
	users := newFakeUserRepo(
		user("owner", model.UserLevelUser),
		user("runner", model.UserLevelUser),
	)
	members := newFakeMemberRepo(member("p1", "owner", true, true, true, true, false))
	perms := newFakePermissionRepo(
		model.ResourcePermission{GranteeUserId: "runner", ResourceId: "f1", ResourceType: model.ResourceTypeFlow, PermissionType: model.PermissionRun},
		model.ResourcePermission{GranteeUserId: "runner", ResourceId: "f2", ResourceType: model.ResourceTypeFlow, PermissionType: model.PermissionRun},
	)
	flows := newFakeFlowRepo(
		&model.Flow{FlowId: "f1", ProjectId: "p1"},
		&model.Flow{FlowId: "f2", ProjectId: "p1"},
	)
	svc := NewFlowService(flows, perms, newResolver(users, members, perms))
	ctx := context.Background()

	require.NoError(t, svc.DeleteFlow(ctx, "owner", "f1"))

	gone, err := perms.List(ctx, "f1", model.ResourceTypeFlow)
	require.NoError(t, err)
	assert.Empty(t, gone, "deleting a flow clears its grants")

	kept, err := perms.List(ctx, "f2", model.ResourceTypeFlow)
	require.NoError(t, err)
	assert.Len(t, kept, 1, "grants on other flows survive")
}

func TestFlowService_ListFlowsFiltersUnreadable(t *testing.T) {
	svc, flows := newFlowFixture(t)
	ctx := context.Background()

	require.NoError(t, flows.CreateFlow(ctx, &model.Flow{FlowId: "f2", ProjectId: "p1", Name: "other"}))

	// runner has grants on f1 only; no project membership.
	list, err := svc.ListFlows(ctx, "runner", "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "f1", list[0].FlowId)

	list, err = svc.ListFlows(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
