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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/observabil/flowgate/internal/errs"
	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/internal/repo"
	"gorm.io/datatypes"
)

// In-memory fakes implementing the repository interfaces. The flow fake
// reproduces the guarded-update semantics of the real store so lock and
// revision races behave the same way.

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	m := map[string]*model.User{}
	for _, u := range users {
		m[u.UserId] = u
	}
	return &fakeUserRepo{users: m}
}

func (f *fakeUserRepo) GetUser(_ context.Context, userId string) (*model.User, error) {
	u, ok := f.users[userId]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userId, errs.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUserRepo) GetUsers(_ context.Context, userIds []string) ([]model.User, error) {
	var out []model.User
	for _, id := range userIds {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[string]*model.ProjectMember
}

func memberKey(projectId, userId string) string {
	return projectId + "/" + userId
}

func newFakeMemberRepo(members ...*model.ProjectMember) *fakeMemberRepo {
	m := map[string]*model.ProjectMember{}
	for _, mem := range members {
		m[memberKey(mem.ProjectId, mem.UserId)] = mem
	}
	return &fakeMemberRepo{members: m}
}

func (f *fakeMemberRepo) GetMember(_ context.Context, projectId, userId string) (*model.ProjectMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberKey(projectId, userId)]
	if !ok {
		return nil, fmt.Errorf("member %s/%s: %w", projectId, userId, errs.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMemberRepo) ListMembers(_ context.Context, projectId string) ([]model.ProjectMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ProjectMember
	for _, m := range f.members {
		if m.ProjectId == projectId {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserId < out[j].UserId })
	return out, nil
}

func (f *fakeMemberRepo) UpsertMember(_ context.Context, member *model.ProjectMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *member
	f.members[memberKey(member.ProjectId, member.UserId)] = &cp
	return nil
}

func (f *fakeMemberRepo) UpdateMemberFlags(_ context.Context, projectId, userId string, flags *model.MemberFlags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberKey(projectId, userId)]
	if !ok {
		return fmt.Errorf("member %s/%s: %w", projectId, userId, errs.ErrNotFound)
	}
	if flags.CanRead != nil {
		m.CanRead = *flags.CanRead
	}
	if flags.CanRun != nil {
		m.CanRun = *flags.CanRun
	}
	if flags.CanEdit != nil {
		m.CanEdit = *flags.CanEdit
	}
	if flags.IsProjectAdmin != nil {
		m.IsProjectAdmin = *flags.IsProjectAdmin
	}
	return nil
}

func (f *fakeMemberRepo) RemoveMember(_ context.Context, projectId, userId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey(projectId, userId)
	if _, ok := f.members[key]; !ok {
		return fmt.Errorf("member %s/%s: %w", projectId, userId, errs.ErrNotFound)
	}
	delete(f.members, key)
	return nil
}

type fakePermissionRepo struct {
	mu     sync.Mutex
	grants []model.ResourcePermission
	nextId int
}

func newFakePermissionRepo(grants ...model.ResourcePermission) *fakePermissionRepo {
	return &fakePermissionRepo{grants: grants}
}

func (f *fakePermissionRepo) Grant(_ context.Context, resourceId string, resourceType model.ResourceType, granteeUserId string, permissionType model.PermissionType, grantedBy string) (*model.ResourcePermission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.grants {
		g := &f.grants[i]
		if g.GranteeUserId == granteeUserId && g.ResourceId == resourceId && g.ResourceType == resourceType && g.PermissionType == permissionType {
			return g, nil
		}
	}
	f.nextId++
	row := model.ResourcePermission{
		PermissionId:    fmt.Sprintf("perm-%d", f.nextId),
		GranteeUserId:   granteeUserId,
		ResourceId:      resourceId,
		ResourceType:    resourceType,
		PermissionType:  permissionType,
		GrantedByUserId: grantedBy,
	}
	f.grants = append(f.grants, row)
	return &row, nil
}

func (f *fakePermissionRepo) Revoke(_ context.Context, resourceId string, resourceType model.ResourceType, granteeUserId string, permissionType model.PermissionType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.grants[:0]
	for _, g := range f.grants {
		if g.GranteeUserId == granteeUserId && g.ResourceId == resourceId && g.ResourceType == resourceType && g.PermissionType == permissionType {
			continue
		}
		kept = append(kept, g)
	}
	f.grants = kept
	return nil
}

func (f *fakePermissionRepo) List(_ context.Context, resourceId string, resourceType model.ResourceType) ([]model.ResourcePermission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ResourcePermission
	for _, g := range f.grants {
		if g.ResourceId == resourceId && g.ResourceType == resourceType {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakePermissionRepo) ListForGrantee(_ context.Context, granteeUserId, resourceId string, resourceType model.ResourceType) ([]model.ResourcePermission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ResourcePermission
	for _, g := range f.grants {
		if g.GranteeUserId == granteeUserId && g.ResourceId == resourceId && g.ResourceType == resourceType {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakePermissionRepo) RevokeAllForResource(_ context.Context, resourceId string, resourceType model.ResourceType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.grants[:0]
	for _, g := range f.grants {
		if g.ResourceId == resourceId && g.ResourceType == resourceType {
			continue
		}
		kept = append(kept, g)
	}
	f.grants = kept
	return nil
}

type fakeFlowRepo struct {
	mu    sync.Mutex
	flows map[string]*model.Flow
}

func newFakeFlowRepo(flows ...*model.Flow) *fakeFlowRepo {
	m := map[string]*model.Flow{}
	for _, f := range flows {
		m[f.FlowId] = f
	}
	return &fakeFlowRepo{flows: m}
}

func (f *fakeFlowRepo) GetFlow(_ context.Context, flowId string) (*model.Flow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flow, ok := f.flows[flowId]
	if !ok {
		return nil, fmt.Errorf("flow %s: %w", flowId, errs.ErrNotFound)
	}
	cp := *flow
	return &cp, nil
}

func (f *fakeFlowRepo) ListFlowsByProject(_ context.Context, projectId string) ([]model.Flow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Flow
	for _, flow := range f.flows {
		if flow.ProjectId == projectId {
			out = append(out, *flow)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FlowId < out[j].FlowId })
	return out, nil
}

func (f *fakeFlowRepo) CreateFlow(_ context.Context, flow *model.Flow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *flow
	f.flows[flow.FlowId] = &cp
	return nil
}

func (f *fakeFlowRepo) DeleteFlow(_ context.Context, flowId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.flows[flowId]; !ok {
		return fmt.Errorf("flow %s: %w", flowId, errs.ErrNotFound)
	}
	delete(f.flows, flowId)
	return nil
}

func (f *fakeFlowRepo) TryAcquire(_ context.Context, flowId, userId string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flow, ok := f.flows[flowId]
	if !ok {
		return false, nil
	}
	if flow.Locked && (flow.LockedBy == nil || *flow.LockedBy != userId) {
		return false, nil
	}
	flow.Locked = true
	flow.LockedBy = &userId
	flow.LockUpdatedAt = &now
	return true, nil
}

func (f *fakeFlowRepo) ReleaseLock(_ context.Context, flowId, userId string, onlyIfHolder bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flow, ok := f.flows[flowId]
	if !ok || !flow.Locked {
		return false, nil
	}
	if onlyIfHolder && (flow.LockedBy == nil || *flow.LockedBy != userId) {
		return false, nil
	}
	flow.Locked = false
	flow.LockedBy = nil
	flow.LockUpdatedAt = nil
	return true, nil
}

func (f *fakeFlowRepo) CommitContent(_ context.Context, flowId string, expectedRevision int64, updates map[string]any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flow, ok := f.flows[flowId]
	if !ok || flow.Revision != expectedRevision {
		return false, nil
	}
	if v, ok := updates["name"].(string); ok {
		flow.Name = v
	}
	if v, ok := updates["description"].(string); ok {
		flow.Description = v
	}
	if v, ok := updates["data"].(datatypes.JSON); ok {
		flow.Data = v
	}
	flow.Revision++
	return true, nil
}

func (f *fakeFlowRepo) SweepExpired(_ context.Context, cutoff time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var released []string
	for _, flow := range f.flows {
		if flow.Locked && flow.LockUpdatedAt != nil && flow.LockUpdatedAt.Before(cutoff) {
			flow.Locked = false
			flow.LockedBy = nil
			flow.LockUpdatedAt = nil
			released = append(released, flow.FlowId)
		}
	}
	sort.Strings(released)
	return released, nil
}

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*model.Project
	members  map[string][]model.ProjectMember
}

func newFakeProjectRepo(projects ...*model.Project) *fakeProjectRepo {
	m := map[string]*model.Project{}
	for _, p := range projects {
		m[p.ProjectId] = p
	}
	return &fakeProjectRepo{projects: m, members: map[string][]model.ProjectMember{}}
}

func (f *fakeProjectRepo) GetProject(_ context.Context, projectId string) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectId]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectId, errs.ErrNotFound)
	}
	return p, nil
}

func (f *fakeProjectRepo) ListProjects(_ context.Context) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Project
	for _, p := range f.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProjectRepo) CreateProjectWithMembers(_ context.Context, project *model.Project, members []model.ProjectMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *project
	f.projects[project.ProjectId] = &cp
	f.members[project.ProjectId] = members
	return nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*model.ProjectRequest
}

func newFakeRequestRepo(requests ...*model.ProjectRequest) *fakeRequestRepo {
	m := map[string]*model.ProjectRequest{}
	for _, r := range requests {
		m[r.RequestId] = r
	}
	return &fakeRequestRepo{requests: m}
}

func (f *fakeRequestRepo) CreateRequest(_ context.Context, req *model.ProjectRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *req
	f.requests[req.RequestId] = &cp
	return nil
}

func (f *fakeRequestRepo) GetRequest(_ context.Context, requestId string) (*model.ProjectRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestId]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", requestId, errs.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequestRepo) ListRequests(_ context.Context, status model.ProjectRequestStatus) ([]model.ProjectRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ProjectRequest
	for _, r := range f.requests {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestId < out[j].RequestId })
	return out, nil
}

func (f *fakeRequestRepo) Resolve(_ context.Context, requestId string, status model.ProjectRequestStatus, rejectionReason string, resolvedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestId]
	if !ok || r.Status != model.RequestPending {
		return false, nil
	}
	r.Status = status
	r.RejectionReason = rejectionReason
	r.ResolvedAt = &resolvedAt
	return true, nil
}

// Interface conformance.
var (
	_ repo.IUserRepository       = (*fakeUserRepo)(nil)
	_ repo.IMemberRepository     = (*fakeMemberRepo)(nil)
	_ repo.IPermissionRepository = (*fakePermissionRepo)(nil)
	_ repo.IFlowRepository       = (*fakeFlowRepo)(nil)
	_ repo.IProjectRepository    = (*fakeProjectRepo)(nil)
	_ repo.IRequestRepository    = (*fakeRequestRepo)(nil)
)

// Common fixture helpers.

func user(id string, level model.UserLevel) *model.User {
	return &model.User{UserId: id, Username: id, IsActive: true, UserLevel: level}
}

func member(projectId, userId string, read, run, edit, admin, creator bool) *model.ProjectMember {
	return &model.ProjectMember{
		ProjectId:      projectId,
		UserId:         userId,
		CanRead:        read,
		CanRun:         run,
		CanEdit:        edit,
		IsProjectAdmin: admin,
		IsCreator:      creator,
	}
}

func newResolver(users *fakeUserRepo, members *fakeMemberRepo, perms *fakePermissionRepo) *RoleResolver {
	return NewRoleResolver(users, members, perms, nil)
}
