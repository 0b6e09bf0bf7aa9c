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

type IUserRepository interface {
	GetUser(ctx context.Context, userId string) (*model.User, error)
	GetUsers(ctx context.Context, userIds []string) ([]model.User, error)
}

type UserRepo struct {
	db database.IDatabase
}

func NewUserRepo(db database.IDatabase) IUserRepository {
	return &UserRepo{db: db}
}

// GetUser returns the user row, or ErrNotFound.
func (r *UserRepo) GetUser(ctx context.Context, userId string) (*model.User, error) {
	var user model.User
	err := r.db.Database().WithContext(ctx).Where("user_id = ?", userId).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", userId, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsers returns the rows for the given ids; missing ids are skipped.
func (r *UserRepo) GetUsers(ctx context.Context, userIds []string) ([]model.User, error) {
	if len(userIds) == 0 {
		return nil, nil
	}
	var users []model.User
	err := r.db.Database().WithContext(ctx).Where("user_id IN ?", userIds).Find(&users).Error
	return users, err
}
