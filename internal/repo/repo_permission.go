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
	"time"

	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/pkg/database"
	"github.com/observabil/flowgate/pkg/id"
	"gorm.io/gorm"
)

// IPermissionRepository persists resource permission grants. It performs no
// caller authorization; that stays in the service layer so persistence and
// policy remain independently testable.
type IPermissionRepository interface {
	Grant(ctx context.Context, resourceId string, resourceType model.ResourceType, granteeUserId string, permissionType model.PermissionType, grantedBy string) (*model.ResourcePermission, error)
	Revoke(ctx context.Context, resourceId string, resourceType model.ResourceType, granteeUserId string, permissionType model.PermissionType) error
	List(ctx context.Context, resourceId string, resourceType model.ResourceType) ([]model.ResourcePermission, error)
	ListForGrantee(ctx context.Context, granteeUserId, resourceId string, resourceType model.ResourceType) ([]model.ResourcePermission, error)
	RevokeAllForResource(ctx context.Context, resourceId string, resourceType model.ResourceType) error
}

type PermissionRepo struct {
	db    database.IDatabase
	cache *CapabilityCache
}

func NewPermissionRepo(db database.IDatabase, cache *CapabilityCache) IPermissionRepository {
	return &PermissionRepo{db: db, cache: cache}
}

// Grant inserts the grant row, or refreshes updated_at when the identical
// (grantee, resource, type) tuple already exists. Idempotent.
func (r *PermissionRepo) Grant(ctx context.Context, resourceId string, resourceType model.ResourceType, granteeUserId string, permissionType model.PermissionType, grantedBy string) (*model.ResourcePermission, error) {
	var row model.ResourcePermission
	err := r.db.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("grantee_user_id = ? AND resource_id = ? AND resource_type = ? AND permission_type = ?",
			granteeUserId, resourceId, resourceType, permissionType).First(&row).Error
		if err == nil {
			return tx.Model(&row).Update("updated_at", time.Now()).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		row = model.ResourcePermission{
			PermissionId:    id.ULID(),
			GranteeUserId:   granteeUserId,
			ResourceId:      resourceId,
			ResourceType:    resourceType,
			PermissionType:  permissionType,
			GrantedByUserId: grantedBy,
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}
	r.cache.Invalidate(ctx, granteeUserId)
	return &row, nil
}

// Revoke deletes the grant row. Revoking an absent grant is a no-op
// success; UIs call revoke speculatively.
func (r *PermissionRepo) Revoke(ctx context.Context, resourceId string, resourceType model.ResourceType, granteeUserId string, permissionType model.PermissionType) error {
	err := r.db.Database().WithContext(ctx).
		Where("grantee_user_id = ? AND resource_id = ? AND resource_type = ? AND permission_type = ?",
			granteeUserId, resourceId, resourceType, permissionType).
		Delete(&model.ResourcePermission{}).Error
	if err != nil {
		return err
	}
	r.cache.Invalidate(ctx, granteeUserId)
	return nil
}

// List returns every grant on one resource.
func (r *PermissionRepo) List(ctx context.Context, resourceId string, resourceType model.ResourceType) ([]model.ResourcePermission, error) {
	var rows []model.ResourcePermission
	err := r.db.Database().WithContext(ctx).
		Where("resource_id = ? AND resource_type = ?", resourceId, resourceType).
		Order("permission_id").
		Find(&rows).Error
	return rows, err
}

// ListForGrantee returns one user's grants on one resource.
func (r *PermissionRepo) ListForGrantee(ctx context.Context, granteeUserId, resourceId string, resourceType model.ResourceType) ([]model.ResourcePermission, error) {
	var rows []model.ResourcePermission
	err := r.db.Database().WithContext(ctx).
		Where("grantee_user_id = ? AND resource_id = ? AND resource_type = ?", granteeUserId, resourceId, resourceType).
		Find(&rows).Error
	return rows, err
}

// RevokeAllForResource clears every grant on a resource, used when a
// resource is deleted. Each former grantee's capability cache is
// invalidated, same as a single Revoke.
func (r *PermissionRepo) RevokeAllForResource(ctx context.Context, resourceId string, resourceType model.ResourceType) error {
	var grantees []string
	err := r.db.Database().WithContext(ctx).
		Model(&model.ResourcePermission{}).
		Where("resource_id = ? AND resource_type = ?", resourceId, resourceType).
		Distinct().
		Pluck("grantee_user_id", &grantees).Error
	if err != nil {
		return err
	}
	err = r.db.Database().WithContext(ctx).
		Where("resource_id = ? AND resource_type = ?", resourceId, resourceType).
		Delete(&model.ResourcePermission{}).Error
	if err != nil {
		return err
	}
	for _, g := range grantees {
		r.cache.Invalidate(ctx, g)
	}
	return nil
}
