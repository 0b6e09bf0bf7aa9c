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

// ProjectRequestStatus is terminal once it leaves PENDING.
type ProjectRequestStatus string

const (
	RequestPending  ProjectRequestStatus = "PENDING"
	RequestApproved ProjectRequestStatus = "APPROVED"
	RequestRejected ProjectRequestStatus = "REJECTED"
)

func (s ProjectRequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// ProjectRequest is a pending project-creation ticket raised by a
// PROJECT_ADMIN-level user and resolved by a SUPER_ADMIN.
type ProjectRequest struct {
	BaseModel
	RequestId       string               `gorm:"column:request_id;uniqueIndex" json:"requestId"`
	TicketCode      string               `gorm:"column:ticket_code" json:"ticketCode"`
	ProjectName     string               `gorm:"column:project_name;index" json:"projectName"`
	Justification   string               `gorm:"column:justification" json:"justification"`
	RequestedUsers  datatypes.JSON       `gorm:"column:requested_users;type:json" json:"requestedUsers"`
	Status          ProjectRequestStatus `gorm:"column:status;default:PENDING;index" json:"status"`
	RequesterId     string               `gorm:"column:requester_id;index" json:"requesterId"`
	ResolvedAt      *time.Time           `gorm:"column:resolved_at" json:"resolvedAt"`
	RejectionReason string               `gorm:"column:rejection_reason" json:"rejectionReason"`
}

func (ProjectRequest) TableName() string {
	return "t_project_request"
}

// SubmitRequestReq is the body of POST /project-requests.
type SubmitRequestReq struct {
	ProjectName    string   `json:"projectName"`
	Justification  string   `json:"justification"`
	RequestedUsers []string `json:"requestedUsers"`
}

// ResolveRequestReq is the body of PATCH /project-requests/:id.
type ResolveRequestReq struct {
	Status          ProjectRequestStatus `json:"status"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
}
