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

	"github.com/observabil/flowgate/internal/errs"
	"github.com/observabil/flowgate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPermissionFixture(t *testing.T) (*PermissionService, *fakePermissionRepo) {
	t.Helper()
	users := newFakeUserRepo(
		user("padmin", model.UserLevelUser),
		user("worker", model.UserLevelUser),
		user("grantee", model.UserLevelUser),
	)
	members := newFakeMemberRepo(
		member("p1", "padmin", true, true, true, true, false),
		member("p1", "worker", true, false, false, false, false),
	)
	perms := newFakePermissionRepo()
	projects := newFakeProjectRepo(&model.Project{ProjectId: "p1", Name: "demo"})
	flows := newFakeFlowRepo(&model.Flow{FlowId: "f1", ProjectId: "p1"})
	resolver := newResolver(users, members, perms)
	return NewPermissionService(perms, flows, projects, users, resolver), perms
}

func TestPermissionService_GrantIdempotent(t *testing.T) {
	svc, perms := newPermissionFixture(t)
	ctx := context.Background()
	req := &model.GrantReq{GranteeUserId: "grantee", PermissionType: model.PermissionRead}

	first, err := svc.Grant(ctx, "padmin", "f1", model.ResourceTypeFlow, req)
	require.NoError(t, err)

	second, err := svc.Grant(ctx, "padmin", "f1", model.ResourceTypeFlow, req)
	require.NoError(t, err)
	assert.Equal(t, first.PermissionId, second.PermissionId, "repeat grant returns the same row")

	rows, err := perms.List(ctx, "f1", model.ResourceTypeFlow)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPermissionService_GrantRequiresManage(t *testing.T) {
	svc, _ := newPermissionFixture(t)

	_, err := svc.Grant(context.Background(), "worker", "f1", model.ResourceTypeFlow,
		&model.GrantReq{GranteeUserId: "grantee", PermissionType: model.PermissionRead})
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestPermissionService_GrantUnknownGrantee(t *testing.T) {
	svc, _ := newPermissionFixture(t)

	_, err := svc.Grant(context.Background(), "padmin", "f1", model.ResourceTypeFlow,
		&model.GrantReq{GranteeUserId: "ghost", PermissionType: model.PermissionRead})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPermissionService_RevokeAbsentIsNoop(t *testing.T) {
	svc, _ := newPermissionFixture(t)

	err := svc.Revoke(context.Background(), "padmin", "f1", model.ResourceTypeFlow, "grantee", model.PermissionRead)
	assert.NoError(t, err, "revoking an absent grant succeeds")
}

func TestPermissionService_FolderGrant(t *testing.T) {
	svc, perms := newPermissionFixture(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, "padmin", "p1", model.ResourceTypeFolder,
		&model.GrantReq{GranteeUserId: "grantee", PermissionType: model.PermissionWrite})
	require.NoError(t, err)

	rows, err := perms.List(ctx, "p1", model.ResourceTypeFolder)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.ResourceTypeFolder, rows[0].ResourceType)
}

func TestPermissionService_UpdateFlowUser(t *testing.T) {
	svc, _ := newPermissionFixture(t)
	ctx := context.Background()
	yes, no := true, false

	row, err := svc.UpdateFlowUser(ctx, "padmin", "f1", "grantee", &model.UpdateFlowUserReq{
		CanRead: &yes, CanRun: &yes,
	})
	require.NoError(t, err)
	assert.True(t, row.CanRead)
	assert.True(t, row.CanRun)
	assert.False(t, row.CanEdit)

	row, err = svc.UpdateFlowUser(ctx, "padmin", "f1", "grantee", &model.UpdateFlowUserReq{
		CanRun: &no, CanEdit: &yes,
	})
	require.NoError(t, err)
	assert.True(t, row.CanRead, "untouched grant survives")
	assert.False(t, row.CanRun)
	assert.True(t, row.CanEdit)
}

func TestPermissionService_ListFlowUsers(t *testing.T) {
	svc, _ := newPermissionFixture(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, "padmin", "f1", model.ResourceTypeFlow,
		&model.GrantReq{GranteeUserId: "grantee", PermissionType: model.PermissionRead})
	require.NoError(t, err)
	_, err = svc.Grant(ctx, "padmin", "f1", model.ResourceTypeFlow,
		&model.GrantReq{GranteeUserId: "grantee", PermissionType: model.PermissionRun})
	require.NoError(t, err)

	list, err := svc.ListFlowUsers(ctx, "padmin", "f1")
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, "grantee", list.Users[0].UserId)
	assert.True(t, list.Users[0].CanRead)
	assert.True(t, list.Users[0].CanRun)
	assert.False(t, list.Users[0].CanEdit)
}

func TestPermissionService_MyFlowPermissions(t *testing.T) {
	svc, _ := newPermissionFixture(t)

	resp, err := svc.MyFlowPermissions(context.Background(), "worker", "f1")
	require.NoError(t, err)
	assert.True(t, resp.CanRead)
	assert.False(t, resp.CanEdit)
}
