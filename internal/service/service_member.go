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
	"errors"

	"github.com/observabil/flowgate/internal/errs"
	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/internal/repo"
	"github.com/observabil/flowgate/pkg/log"
)

// MemberService manages project membership. Mutations require project
// admin capability on the project. The creator row is protected: no
// caller, SUPER_ADMIN included, may demote or remove it.
type MemberService struct {
	memberRepo     repo.IMemberRepository
	projectRepo    repo.IProjectRepository
	userRepo       repo.IUserRepository
	permissionRepo repo.IPermissionRepository
	flowRepo       repo.IFlowRepository
	resolver       *RoleResolver
}

func NewMemberService(memberRepo repo.IMemberRepository, projectRepo repo.IProjectRepository, userRepo repo.IUserRepository, permissionRepo repo.IPermissionRepository, flowRepo repo.IFlowRepository, resolver *RoleResolver) *MemberService {
	return &MemberService{
		memberRepo:     memberRepo,
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		permissionRepo: permissionRepo,
		flowRepo:       flowRepo,
		resolver:       resolver,
	}
}

func (s *MemberService) requireProjectAdmin(ctx context.Context, userId, projectId string) error {
	cap, err := s.resolver.Capability(ctx, userId, model.ResourceRef{ProjectId: projectId})
	if err != nil {
		return err
	}
	if !cap.IsProjectAdmin {
		return errs.ErrPermissionDenied
	}
	return nil
}

// ListMembers returns the member roster with usernames joined in.
func (s *MemberService) ListMembers(ctx context.Context, actorId, projectId string) (*model.ProjectUserList, error) {
	if _, err := s.projectRepo.GetProject(ctx, projectId); err != nil {
		return nil, err
	}
	cap, err := s.resolver.Capability(ctx, actorId, model.ResourceRef{ProjectId: projectId})
	if err != nil {
		return nil, err
	}
	if !cap.CanRead {
		return nil, errs.ErrPermissionDenied
	}

	members, err := s.memberRepo.ListMembers(ctx, projectId)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserId)
	}
	users, err := s.userRepo.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	for _, u := range users {
		names[u.UserId] = u.Username
	}

	list := &model.ProjectUserList{Users: make([]model.ProjectUserRow, 0, len(members))}
	for _, m := range members {
		list.Users = append(list.Users, model.ProjectUserRow{
			UserId:         m.UserId,
			Username:       names[m.UserId],
			CanRead:        m.CanRead,
			CanRun:         m.CanRun,
			CanEdit:        m.CanEdit,
			IsProjectAdmin: m.IsProjectAdmin,
			IsCreator:      m.IsCreator,
		})
	}
	list.TotalCount = len(list.Users)
	return list, nil
}

// AddMember adds or overwrites a membership. The target must exist as a
// user. Re-adding the creator is refused; the upsert would demote an
// otherwise untouchable row.
func (s *MemberService) AddMember(ctx context.Context, actorId, projectId, userId string, flags model.MemberFlags) (*model.ProjectMember, error) {
	if _, err := s.projectRepo.GetProject(ctx, projectId); err != nil {
		return nil, err
	}
	if err := s.requireProjectAdmin(ctx, actorId, projectId); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetUser(ctx, userId); err != nil {
		return nil, err
	}
	existing, err := s.memberRepo.GetMember(ctx, projectId, userId)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsCreator {
		return nil, errs.ErrSelfModificationDenied
	}

	member := &model.ProjectMember{
		ProjectId: projectId,
		UserId:    userId,
		CanRead:   true,
	}
	if flags.CanRead != nil {
		member.CanRead = *flags.CanRead
	}
	if flags.CanRun != nil {
		member.CanRun = *flags.CanRun
	}
	if flags.CanEdit != nil {
		member.CanEdit = *flags.CanEdit
	}
	if flags.IsProjectAdmin != nil {
		member.IsProjectAdmin = *flags.IsProjectAdmin
	}
	if err := s.memberRepo.UpsertMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// UpdateMember applies a partial flag update to a member. Touching the
// creator row is refused for every caller. Promoting a member to project
// admin grants the full flag set.
func (s *MemberService) UpdateMember(ctx context.Context, actorId, projectId, userId string, flags *model.MemberFlags) (*model.ProjectMember, error) {
	if err := s.requireProjectAdmin(ctx, actorId, projectId); err != nil {
		return nil, err
	}
	member, err := s.memberRepo.GetMember(ctx, projectId, userId)
	if err != nil {
		return nil, err
	}
	if member.IsCreator {
		return nil, errs.ErrSelfModificationDenied
	}

	// Admin promotion implies the full capability set.
	if flags.IsProjectAdmin != nil && *flags.IsProjectAdmin {
		t := true
		flags.CanRead, flags.CanRun, flags.CanEdit = &t, &t, &t
	}
	if err := s.memberRepo.UpdateMemberFlags(ctx, projectId, userId, flags); err != nil {
		return nil, err
	}
	return s.memberRepo.GetMember(ctx, projectId, userId)
}

// RemoveMember removes a membership and cleans up the user's direct grants
// on the project and its flows. The creator row is protected.
func (s *MemberService) RemoveMember(ctx context.Context, actorId, projectId, userId string) error {
	if err := s.requireProjectAdmin(ctx, actorId, projectId); err != nil {
		return err
	}
	member, err := s.memberRepo.GetMember(ctx, projectId, userId)
	if err != nil {
		return err
	}
	if member.IsCreator {
		return errs.ErrSelfModificationDenied
	}
	if err := s.memberRepo.RemoveMember(ctx, projectId, userId); err != nil {
		return err
	}

	// Best-effort grant cleanup; a failed revoke leaves a dangling grant
	// that no longer resolves without membership context.
	if err := s.cleanupGrants(ctx, projectId, userId); err != nil {
		log.Warnf("grant cleanup for user %s in project %s failed: %v", userId, projectId, err)
	}
	return nil
}

func (s *MemberService) cleanupGrants(ctx context.Context, projectId, userId string) error {
	grants, err := s.permissionRepo.ListForGrantee(ctx, userId, projectId, model.ResourceTypeFolder)
	if err != nil {
		return err
	}
	for _, g := range grants {
		if err := s.permissionRepo.Revoke(ctx, projectId, model.ResourceTypeFolder, userId, g.PermissionType); err != nil {
			return err
		}
	}
	flows, err := s.flowRepo.ListFlowsByProject(ctx, projectId)
	if err != nil {
		return err
	}
	for _, f := range flows {
		grants, err := s.permissionRepo.ListForGrantee(ctx, userId, f.FlowId, model.ResourceTypeFlow)
		if err != nil {
			return err
		}
		for _, g := range grants {
			if err := s.permissionRepo.Revoke(ctx, f.FlowId, model.ResourceTypeFlow, userId, g.PermissionType); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetMember returns one membership row, or ErrNotFound.
func (s *MemberService) GetMember(ctx context.Context, actorId, projectId, userId string) (*model.ProjectMember, error) {
	cap, err := s.resolver.Capability(ctx, actorId, model.ResourceRef{ProjectId: projectId})
	if err != nil {
		return nil, err
	}
	if !cap.CanRead && actorId != userId {
		return nil, errs.ErrPermissionDenied
	}
	member, err := s.memberRepo.GetMember(ctx, projectId, userId)
	if err != nil && errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	return member, err
}
