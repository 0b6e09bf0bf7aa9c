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
)

// RoleResolver computes the effective capability set for a (user, resource)
// pair. Resolution is strictly ordered: global SUPER_ADMIN short-circuits to
// all capabilities, a project membership row decides everything inside that
// project, and only non-members fall back to per-resource grants. Any lookup
// miss leaves capabilities at their zero value, so an unknown user or
// resource resolves to all-false rather than an error.
type RoleResolver struct {
	userRepo       repo.IUserRepository
	memberRepo     repo.IMemberRepository
	permissionRepo repo.IPermissionRepository
	cache          *repo.CapabilityCache
}

func NewRoleResolver(userRepo repo.IUserRepository, memberRepo repo.IMemberRepository, permissionRepo repo.IPermissionRepository, cache *repo.CapabilityCache) *RoleResolver {
	return &RoleResolver{
		userRepo:       userRepo,
		memberRepo:     memberRepo,
		permissionRepo: permissionRepo,
		cache:          cache,
	}
}

// Capability resolves the capability set for userId on ref. Fail-closed:
// lookup errors other than genuine store failures, and absent rows, produce
// the zero capability set.
func (r *RoleResolver) Capability(ctx context.Context, userId string, ref model.ResourceRef) (model.Capability, error) {
	if cap, ok := r.cache.Get(ctx, userId, ref); ok {
		return cap, nil
	}

	cap, err := r.resolve(ctx, userId, ref)
	if err != nil {
		return model.Capability{}, err
	}
	r.cache.Put(ctx, userId, ref, cap)
	return cap, nil
}

func (r *RoleResolver) resolve(ctx context.Context, userId string, ref model.ResourceRef) (model.Capability, error) {
	var cap model.Capability

	user, err := r.userRepo.GetUser(ctx, userId)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return cap, nil
		}
		return cap, err
	}
	if !user.IsActive {
		return cap, nil
	}
	if user.UserLevel == model.UserLevelSuperAdmin {
		return model.AllCapabilities(), nil
	}

	if ref.ProjectId != "" {
		member, err := r.memberRepo.GetMember(ctx, ref.ProjectId, userId)
		if err != nil && !errors.Is(err, errs.ErrNotFound) {
			return model.Capability{}, err
		}
		if member != nil {
			// The membership row is authoritative inside its project;
			// resource grants are a non-member fallback only.
			if member.IsProjectAdmin {
				return model.AllCapabilities(), nil
			}
			cap.CanRead = member.CanRead
			cap.CanRun = member.CanRun
			cap.CanEdit = member.CanEdit
			return cap, nil
		}
	}

	if ref.ProjectId != "" {
		grants, err := r.permissionRepo.ListForGrantee(ctx, userId, ref.ProjectId, model.ResourceTypeFolder)
		if err != nil {
			return model.Capability{}, err
		}
		for _, g := range grants {
			cap.Apply(g.PermissionType)
		}
	}
	if ref.FlowId != "" {
		grants, err := r.permissionRepo.ListForGrantee(ctx, userId, ref.FlowId, model.ResourceTypeFlow)
		if err != nil {
			return model.Capability{}, err
		}
		for _, g := range grants {
			cap.Apply(g.PermissionType)
		}
	}
	return cap, nil
}

// IsSuperAdmin reports whether userId holds the global SUPER_ADMIN level.
func (r *RoleResolver) IsSuperAdmin(ctx context.Context, userId string) (bool, error) {
	user, err := r.userRepo.GetUser(ctx, userId)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsActive && user.UserLevel == model.UserLevelSuperAdmin, nil
}
