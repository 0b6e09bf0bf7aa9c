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

package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/observabil/flowgate/internal/errs"
	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/pkg/database"
	"gorm.io/gorm"
)

// IMemberRepository persists project membership rows.
type IMemberRepository interface {
	GetMember(ctx context.Context, projectId, userId string) (*model.ProjectMember, error)
	ListMembers(ctx context.Context, projectId string) ([]model.ProjectMember, error)
	UpsertMember(ctx context.Context, member *model.ProjectMember) error
	UpdateMemberFlags(ctx context.Context, projectId, userId string, flags *model.MemberFlags) error
	RemoveMember(ctx context.Context, projectId, userId string) error
}

type MemberRepo struct {
	db    database.IDatabase
	cache *CapabilityCache
}

func NewMemberRepo(db database.IDatabase, cache *CapabilityCache) IMemberRepository {
	return &MemberRepo{db: db, cache: cache}
}

func (r *MemberRepo) GetMember(ctx context.Context, projectId, userId string) (*model.ProjectMember, error) {
	var m model.ProjectMember
	err := r.db.Database().WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectId, userId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("member %s/%s: %w", projectId, userId, errs.ErrNotFound)
		}
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepo) ListMembers(ctx context.Context, projectId string) ([]model.ProjectMember, error) {
	var rows []model.ProjectMember
	err := r.db.Database().WithContext(ctx).
		Where("project_id = ?", projectId).
		Order("id").
		Find(&rows).Error
	return rows, err
}

// UpsertMember inserts the membership or overwrites its flags when the
// (project, user) row already exists.
func (r *MemberRepo) UpsertMember(ctx context.Context, member *model.ProjectMember) error {
	err := r.db.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ProjectMember
		err := tx.Where("project_id = ? AND user_id = ?", member.ProjectId, member.UserId).
			First(&existing).Error
		if err == nil {
			return tx.Model(&existing).Updates(map[string]any{
				"can_read":         member.CanRead,
				"can_run":          member.CanRun,
				"can_edit":         member.CanEdit,
				"is_project_admin": member.IsProjectAdmin,
			}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return err
	}
	r.cache.Invalidate(ctx, member.UserId)
	return nil
}

// UpdateMemberFlags applies a partial flag update. Nil fields keep
// their stored value.
func (r *MemberRepo) UpdateMemberFlags(ctx context.Context, projectId, userId string, flags *model.MemberFlags) error {
	updates := map[string]any{}
	if flags.CanRead != nil {
		updates["can_read"] = *flags.CanRead
	}
	if flags.CanRun != nil {
		updates["can_run"] = *flags.CanRun
	}
	if flags.CanEdit != nil {
		updates["can_edit"] = *flags.CanEdit
	}
	if flags.IsProjectAdmin != nil {
		updates["is_project_admin"] = *flags.IsProjectAdmin
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.db.Database().WithContext(ctx).Model(&model.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectId, userId).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("member %s/%s: %w", projectId, userId, errs.ErrNotFound)
	}
	r.cache.Invalidate(ctx, userId)
	return nil
}

func (r *MemberRepo) RemoveMember(ctx context.Context, projectId, userId string) error {
	res := r.db.Database().WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectId, userId).
		Delete(&model.ProjectMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("member %s/%s: %w", projectId, userId, errs.ErrNotFound)
	}
	r.cache.Invalidate(ctx, userId)
	return nil
}
