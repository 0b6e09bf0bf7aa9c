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

// IProjectRepository persists projects.
type IProjectRepository interface {
	GetProject(ctx context.Context, projectId string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	// CreateProjectWithMembers creates the project and its initial member
	// rows in one transaction.
	CreateProjectWithMembers(ctx context.Context, project *model.Project, members []model.ProjectMember) error
}

type ProjectRepo struct {
	db database.IDatabase
}

func NewProjectRepo(db database.IDatabase) IProjectRepository {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) GetProject(ctx context.Context, projectId string) (*model.Project, error) {
	var p model.Project
	err := r.db.Database().WithContext(ctx).Where("project_id = ?", projectId).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %s: %w", projectId, errs.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) ListProjects(ctx context.Context) ([]model.Project, error) {
	var rows []model.Project
	err := r.db.Database().WithContext(ctx).Order("id").Find(&rows).Error
	return rows, err
}

func (r *ProjectRepo) CreateProjectWithMembers(ctx context.Context, project *model.Project, members []model.ProjectMember) error {
	return r.db.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Create(&members).Error
	})
}
