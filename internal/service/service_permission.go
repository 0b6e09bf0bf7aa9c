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

	"github.com/observabil/flowgate/internal/errs"
	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/internal/repo"
)

// PermissionService manages per-resource permission grants. Callers need
// MANAGE_PERMISSIONS capability on the target resource to grant, revoke or
// list; the resolver already folds in SUPER_ADMIN and project-admin rights.
type PermissionService struct {
	permissionRepo repo.IPermissionRepository
	flowRepo       repo.IFlowRepository
	projectRepo    repo.IProjectRepository
	userRepo       repo.IUserRepository
	resolver       *RoleResolver
}

func NewPermissionService(permissionRepo repo.IPermissionRepository, flowRepo repo.IFlowRepository, projectRepo repo.IProjectRepository, userRepo repo.IUserRepository, resolver *RoleResolver) *PermissionService {
	return &PermissionService{
		permissionRepo: permissionRepo,
		flowRepo:       flowRepo,
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		resolver:       resolver,
	}
}

// refFor resolves the capability ref for a resource, verifying the
// resource exists.
func (s *PermissionService) refFor(ctx context.Context, resourceId string, resourceType model.ResourceType) (model.ResourceRef, error) {
	switch resourceType {
	case model.ResourceTypeFlow:
		flow, err := s.flowRepo.GetFlow(ctx, resourceId)
		if err != nil {
			return model.ResourceRef{}, err
		}
		return model.ResourceRef{ProjectId: flow.ProjectId, FlowId: resourceId}, nil
	case model.ResourceTypeFolder:
		if _, err := s.projectRepo.GetProject(ctx, resourceId); err != nil {
			return model.ResourceRef{}, err
		}
		return model.ResourceRef{ProjectId: resourceId}, nil
	default:
		return model.ResourceRef{}, fmt.Errorf("resource type %s: %w", resourceType, errs.ErrNotFound)
	}
}

func (s *PermissionService) requireManage(ctx context.Context, userId string, ref model.ResourceRef) error {
	cap, err := s.resolver.Capability(ctx, userId, ref)
	if err != nil {
		return err
	}
	if !cap.CanManagePermissions {
		return errs.ErrPermissionDenied
	}
	return nil
}

// Grant creates (or refreshes) a permission grant. The grantee must be an
// existing user; granting twice is idempotent.
func (s *PermissionService) Grant(ctx context.Context, actorId, resourceId string, resourceType model.ResourceType, req *model.GrantReq) (*model.ResourcePermission, error) {
	if !req.PermissionType.Valid() {
		return nil, fmt.Errorf("permission type %s: %w", req.PermissionType, errs.ErrNotFound)
	}
	ref, err := s.refFor(ctx, resourceId, resourceType)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, actorId, ref); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetUser(ctx, req.GranteeUserId); err != nil {
		return nil, err
	}
	return s.permissionRepo.Grant(ctx, resourceId, resourceType, req.GranteeUserId, req.PermissionType, actorId)
}

// Revoke removes a grant. Revoking an absent grant succeeds.
func (s *PermissionService) Revoke(ctx context.Context, actorId, resourceId string, resourceType model.ResourceType, granteeUserId string, permissionType model.PermissionType) error {
	ref, err := s.refFor(ctx, resourceId, resourceType)
	if err != nil {
		return err
	}
	if err := s.requireManage(ctx, actorId, ref); err != nil {
		return err
	}
	return s.permissionRepo.Revoke(ctx, resourceId, resourceType, granteeUserId, permissionType)
}

// List returns every grant on a resource.
func (s *PermissionService) List(ctx context.Context, actorId, resourceId string, resourceType model.ResourceType) ([]model.ResourcePermission, error) {
	ref, err := s.refFor(ctx, resourceId, resourceType)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, actorId, ref); err != nil {
		return nil, err
	}
	return s.permissionRepo.List(ctx, resourceId, resourceType)
}

// ListFlowUsers returns the users holding direct grants on a flow with
// their effective read/run/edit flags.
func (s *PermissionService) ListFlowUsers(ctx context.Context, actorId, flowId string) (*model.FlowUserList, error) {
	ref, err := s.refFor(ctx, flowId, model.ResourceTypeFlow)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, actorId, ref); err != nil {
		return nil, err
	}
	grants, err := s.permissionRepo.List(ctx, flowId, model.ResourceTypeFlow)
	if err != nil {
		return nil, err
	}

	byUser := map[string]*model.FlowUserRow{}
	order := []string{}
	for _, g := range grants {
		row, ok := byUser[g.GranteeUserId]
		if !ok {
			row = &model.FlowUserRow{UserId: g.GranteeUserId}
			byUser[g.GranteeUserId] = row
			order = append(order, g.GranteeUserId)
		}
		switch g.PermissionType {
		case model.PermissionRead:
			row.CanRead = true
		case model.PermissionRun:
			row.CanRun = true
		case model.PermissionWrite:
			row.CanEdit = true
		}
	}

	users, err := s.userRepo.GetUsers(ctx, order)
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	for _, u := range users {
		names[u.UserId] = u.Username
	}

	list := &model.FlowUserList{Users: make([]model.FlowUserRow, 0, len(order))}
	for _, uid := range order {
		row := byUser[uid]
		row.Username = names[uid]
		list.Users = append(list.Users, *row)
	}
	return list, nil
}

// UpdateFlowUser reconciles one user's direct grants on a flow against the
// requested flags: a true flag ensures the grant exists, a false flag
// revokes it, nil leaves it alone.
func (s *PermissionService) UpdateFlowUser(ctx context.Context, actorId, flowId, userId string, req *model.UpdateFlowUserReq) (*model.FlowUserRow, error) {
	ref, err := s.refFor(ctx, flowId, model.ResourceTypeFlow)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, actorId, ref); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	apply := func(flag *bool, t model.PermissionType) error {
		if flag == nil {
			return nil
		}
		if *flag {
			_, err := s.permissionRepo.Grant(ctx, flowId, model.ResourceTypeFlow, userId, t, actorId)
			return err
		}
		return s.permissionRepo.Revoke(ctx, flowId, model.ResourceTypeFlow, userId, t)
	}
	if err := apply(req.CanRead, model.PermissionRead); err != nil {
		return nil, err
	}
	if err := apply(req.CanRun, model.PermissionRun); err != nil {
		return nil, err
	}
	if err := apply(req.CanEdit, model.PermissionWrite); err != nil {
		return nil, err
	}

	grants, err := s.permissionRepo.ListForGrantee(ctx, userId, flowId, model.ResourceTypeFlow)
	if err != nil {
		return nil, err
	}
	row := &model.FlowUserRow{UserId: userId, Username: user.Username}
	for _, g := range grants {
		switch g.PermissionType {
		case model.PermissionRead:
			row.CanRead = true
		case model.PermissionRun:
			row.CanRun = true
		case model.PermissionWrite:
			row.CanEdit = true
		}
	}
	return row, nil
}

// MyFlowPermissions returns the caller's effective read/run/edit on one
// flow, for the UI to gate its controls.
func (s *PermissionService) MyFlowPermissions(ctx context.Context, userId, flowId string) (*model.FlowPermissionResp, error) {
	ref, err := s.refFor(ctx, flowId, model.ResourceTypeFlow)
	if err != nil {
		return nil, err
	}
	cap, err := s.resolver.Capability(ctx, userId, ref)
	if err != nil {
		return nil, err
	}
	return &model.FlowPermissionResp{CanRead: cap.CanRead, CanRun: cap.CanRun, CanEdit: cap.CanEdit}, nil
}
