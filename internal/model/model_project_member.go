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

// ProjectMember is the per-project capability record for one user. Unique
// per (project_id, user_id). IsCreator marks the protected original-admin
// row that the membership store refuses to demote or remove.
type ProjectMember struct {
	BaseModel
	ProjectId      string `gorm:"column:project_id;not null;index:idx_project_user,unique" json:"projectId"`
	UserId         string `gorm:"column:user_id;not null;index:idx_project_user,unique;index:idx_member_user" json:"userId"`
	CanRead        bool   `gorm:"column:can_read" json:"canRead"`
	CanRun         bool   `gorm:"column:can_run" json:"canRun"`
	CanEdit        bool   `gorm:"column:can_edit" json:"canEdit"`
	IsProjectAdmin bool   `gorm:"column:is_project_admin" json:"isProjectAdmin"`
	IsCreator      bool   `gorm:"column:is_creator" json:"isCreator"`
}

func (ProjectMember) TableName() string {
	return "t_project_member"
}

// MemberFlags is a partial update of a member row. Nil fields are left
// untouched.
type MemberFlags struct {
	CanRead        *bool `json:"canRead,omitempty"`
	CanRun         *bool `json:"canRun,omitempty"`
	CanEdit        *bool `json:"canEdit,omitempty"`
	IsProjectAdmin *bool `json:"isProjectAdmin,omitempty"`
}

// ProjectUserRow is the list shape for GET /projects/:id/users.
type ProjectUserRow struct {
	UserId         string `json:"userId"`
	Username       string `json:"username"`
	CanRead        bool   `json:"canRead"`
	CanRun         bool   `json:"canRun"`
	CanEdit        bool   `json:"canEdit"`
	IsProjectAdmin bool   `json:"isProjectAdmin"`
	IsCreator      bool   `json:"isCreator"`
}

type ProjectUserList struct {
	Users      []ProjectUserRow `json:"users"`
	TotalCount int              `json:"totalCount"`
}
