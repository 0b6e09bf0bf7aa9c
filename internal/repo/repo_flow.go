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
	"time"

	"github.com/observabil/flowgate/internal/errs"
	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/pkg/database"
	"gorm.io/gorm"
)

// IFlowRepository persists flows and their lock and revision state.
// Lock transitions and content commits go through guarded single-row
// updates so concurrent callers race on the database, not in process.
type IFlowRepository interface {
	GetFlow(ctx context.Context, flowId string) (*model.Flow, error)
	ListFlowsByProject(ctx context.Context, projectId string) ([]model.Flow, error)
	CreateFlow(ctx context.Context, flow *model.Flow) error
	DeleteFlow(ctx context.Context, flowId string) error

	// TryAcquire sets the lock for userId. Re-acquiring a lock the user
	// already holds refreshes lock_updated_at. Returns false when another
	// user holds the lock.
	TryAcquire(ctx context.Context, flowId, userId string, now time.Time) (bool, error)
	// ReleaseLock clears the lock. With onlyIfHolder set the update is
	// guarded on locked_by = userId; returns false when the guard misses.
	ReleaseLock(ctx context.Context, flowId, userId string, onlyIfHolder bool) (bool, error)
	// CommitContent applies the save guarded on the expected revision.
	// Returns false when the revision moved underneath the caller.
	CommitContent(ctx context.Context, flowId string, expectedRevision int64, updates map[string]any) (bool, error)
	// SweepExpired force-releases locks older than cutoff and returns the
	// flow ids that were released.
	SweepExpired(ctx context.Context, cutoff time.Time) ([]string, error)
}

type FlowRepo struct {
	db database.IDatabase
}

func NewFlowRepo(db database.IDatabase) IFlowRepository {
	return &FlowRepo{db: db}
}

func (r *FlowRepo) GetFlow(ctx context.Context, flowId string) (*model.Flow, error) {
	var flow model.Flow
	err := r.db.Database().WithContext(ctx).Where("flow_id = ?", flowId).First(&flow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("flow %s: %w", flowId, errs.ErrNotFound)
		}
		return nil, err
	}
	return &flow, nil
}

func (r *FlowRepo) ListFlowsByProject(ctx context.Context, projectId string) ([]model.Flow, error) {
	var flows []model.Flow
	err := r.db.Database().WithContext(ctx).
		Where("project_id = ?", projectId).
		Order("id").
		Find(&flows).Error
	return flows, err
}

func (r *FlowRepo) CreateFlow(ctx context.Context, flow *model.Flow) error {
	return r.db.Database().WithContext(ctx).Create(flow).Error
}

func (r *FlowRepo) DeleteFlow(ctx context.Context, flowId string) error {
	res := r.db.Database().WithContext(ctx).Where("flow_id = ?", flowId).Delete(&model.Flow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("flow %s: %w", flowId, errs.ErrNotFound)
	}
	return nil
}

func (r *FlowRepo) TryAcquire(ctx context.Context, flowId, userId string, now time.Time) (bool, error) {
	res := r.db.Database().WithContext(ctx).Model(&model.Flow{}).
		Where("flow_id = ? AND (locked = ? OR locked_by = ?)", flowId, false, userId).
		Updates(map[string]any{
			"locked":          true,
			"locked_by":       userId,
			"lock_updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *FlowRepo) ReleaseLock(ctx context.Context, flowId, userId string, onlyIfHolder bool) (bool, error) {
	tx := r.db.Database().WithContext(ctx).Model(&model.Flow{}).
		Where("flow_id = ? AND locked = ?", flowId, true)
	if onlyIfHolder {
		tx = tx.Where("locked_by = ?", userId)
	}
	res := tx.Updates(map[string]any{
		"locked":          false,
		"locked_by":       nil,
		"lock_updated_at": nil,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *FlowRepo) CommitContent(ctx context.Context, flowId string, expectedRevision int64, updates map[string]any) (bool, error) {
	updates["revision"] = gorm.Expr("revision + 1")
	res := r.db.Database().WithContext(ctx).Model(&model.Flow{}).
		Where("flow_id = ? AND revision = ?", flowId, expectedRevision).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *FlowRepo) SweepExpired(ctx context.Context, cutoff time.Time) ([]string, error) {
	var stale []model.Flow
	db := r.db.Database().WithContext(ctx)
	err := db.Select("flow_id").
		Where("locked = ? AND lock_updated_at < ?", true, cutoff).
		Find(&stale).Error
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}
	released := make([]string, 0, len(stale))
	for _, f := range stale {
		// Guard each release on the cutoff so a lock refreshed between the
		// select and the update survives.
		res := db.Model(&model.Flow{}).
			Where("flow_id = ? AND locked = ? AND lock_updated_at < ?", f.FlowId, true, cutoff).
			Updates(map[string]any{
				"locked":          false,
				"locked_by":       nil,
				"lock_updated_at": nil,
			})
		if res.Error != nil {
			return released, res.Error
		}
		if res.RowsAffected > 0 {
			released = append(released, f.FlowId)
		}
	}
	return released, nil
}
