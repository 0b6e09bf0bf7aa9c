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

// Project groups flows and carries a membership list. The creator's member
// row is protected and can never be demoted or removed.
type Project struct {
	BaseModel
	ProjectId   string `gorm:"column:project_id;uniqueIndex" json:"projectId"`
	Name        string `gorm:"column:name" json:"name"`
	Description string `gorm:"column:description" json:"description"`
	CreatedBy   string `gorm:"column:created_by" json:"createdBy"`
}

func (Project) TableName() string {
	return "t_project"
}
