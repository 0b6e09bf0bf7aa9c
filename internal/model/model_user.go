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

package model

// UserLevel is the global role of a user. It is the single source of truth
// for role precedence; no boolean flag may shadow it.
type UserLevel string

const (
	UserLevelUser         UserLevel = "USER"
	UserLevelProjectAdmin UserLevel = "PROJECT_ADMIN"
	UserLevelSuperAdmin   UserLevel = "SUPER_ADMIN"
)

// Valid reports whether the level is one of the three known variants.
func (l UserLevel) Valid() bool {
	switch l {
	case UserLevelUser, UserLevelProjectAdmin, UserLevelSuperAdmin:
		return true
	}
	return false
}

type User struct {
	BaseModel
	UserId    string    `gorm:"column:user_id;uniqueIndex" json:"userId"`
	Username  string    `gorm:"column:username" json:"username"`
	Email     string    `gorm:"column:email" json:"email"`
	IsActive  bool      `gorm:"column:is_active;default:true" json:"isActive"`
	UserLevel UserLevel `gorm:"column:user_level;default:USER" json:"userLevel"`
}

func (User) TableName() string {
	return "t_user"
}

type UserInfo struct {
	UserId   string `json:"userId"`
	Username string `json:"username"`
}
