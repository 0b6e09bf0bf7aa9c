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

import (
	"time"

	"gorm.io/datatypes"
)

// Flow is the lockable, editable resource. The lock columns are owned by
// the lock service; Revision guards content commits optimistically.
type Flow struct {
	BaseModel
	FlowId        string         `gorm:"column:flow_id;uniqueIndex" json:"flowId"`
	ProjectId     string         `gorm:"column:project_id;index" json:"projectId"`
	Name          string         `gorm:"column:name" json:"name"`
	Description   string         `gorm:"column:description" json:"description"`
	Data          datatypes.JSON `gorm:"column:data;type:json" json:"data"`
	Revision      int64          `gorm:"column:revision;default:0" json:"revision"`
	Locked        bool           `gorm:"column:locked;default:false" json:"locked"`
	LockedBy      *string        `gorm:"column:locked_by" json:"lockedBy"`
	LockUpdatedAt *time.Time     `gorm:"column:lock_updated_at" json:"lockUpdatedAt"`
}

func (Flow) TableName() string {
	return "t_flow"
}

// LockState is the inspect result for one flow.
type LockState struct {
	Locked   bool       `json:"locked"`
	LockedBy *string    `json:"lockedBy"`
	Since    *time.Time `json:"since"`
}

// FlowRead is the API shape of a flow, amended with the caller's effective
// capabilities so the UI needs no second round-trip.
type FlowRead struct {
	FlowId        string             `json:"flowId"`
	ProjectId     string             `json:"projectId"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Data          datatypes.JSON     `json:"data"`
	Revision      int64              `json:"revision"`
	Locked        bool               `json:"locked"`
	LockedBy      *string            `json:"lockedBy"`
	LockUpdatedAt *time.Time         `json:"lockUpdatedAt"`
	Permissions   FlowPermissionResp `json:"permissions"`
}

// NewFlowRead builds the API shape from a flow row and resolved capabilities.
func NewFlowRead(flow *Flow, capability Capability) *FlowRead {
	return &FlowRead{
		FlowId:        flow.FlowId,
		ProjectId:     flow.ProjectId,
		Name:          flow.Name,
		Description:   flow.Description,
		Data:          flow.Data,
		Revision:      flow.Revision,
		Locked:        flow.Locked,
		LockedBy:      flow.LockedBy,
		LockUpdatedAt: flow.LockUpdatedAt,
		Permissions: FlowPermissionResp{
			CanRead: capability.CanRead,
			CanRun:  capability.CanRun,
			CanEdit: capability.CanEdit,
		},
	}
}

// SaveFlowReq is the body of PATCH /flows/:id.
type SaveFlowReq struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Data        datatypes.JSON `json:"data,omitempty"`
}
