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

// IRequestRepository persists project creation requests.
type IRequestRepository interface {
	CreateRequest(ctx context.Context, req *model.ProjectRequest) error
	GetRequest(ctx context.Context, requestId string) (*model.ProjectRequest, error)
	ListRequests(ctx context.Context, status model.ProjectRequestStatus) ([]model.ProjectRequest, error)
	// Resolve moves a PENDING request into its terminal status. Returns
	// false when the request was already resolved by a concurrent call.
	Resolve(ctx context.Context, requestId string, status model.ProjectRequestStatus, rejectionReason string, resolvedAt time.Time) (bool, error)
}

type RequestRepo struct {
	db database.IDatabase
}

func NewRequestRepo(db database.IDatabase) IRequestRepository {
	return &RequestRepo{db: db}
}

func (r *RequestRepo) CreateRequest(ctx context.Context, req *model.ProjectRequest) error {
	return r.db.Database().WithContext(ctx).Create(req).Error
}

func (r *RequestRepo) GetRequest(ctx context.Context, requestId string) (*model.ProjectRequest, error) {
	var req model.ProjectRequest
	err := r.db.Database().WithContext(ctx).Where("request_id = ?", requestId).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("request %s: %w", requestId, errs.ErrNotFound)
		}
		return nil, err
	}
	return &req, nil
}

// ListRequests returns requests filtered by status, or all of them when
// status is empty. Newest first.
func (r *RequestRepo) ListRequests(ctx context.Context, status model.ProjectRequestStatus) ([]model.ProjectRequest, error) {
	var rows []model.ProjectRequest
	tx := r.db.Database().WithContext(ctx)
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	err := tx.Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *RequestRepo) Resolve(ctx context.Context, requestId string, status model.ProjectRequestStatus, rejectionReason string, resolvedAt time.Time) (bool, error) {
	res := r.db.Database().WithContext(ctx).Model(&model.ProjectRequest{}).
		Where("request_id = ? AND status = ?", requestId, model.RequestPending).
		Updates(map[string]any{
			"status":           status,
			"rejection_reason": rejectionReason,
			"resolved_at":      resolvedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
