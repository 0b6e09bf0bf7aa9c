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

// ResourceType is the kind of resource a grant attaches to.
type ResourceType string

const (
	ResourceTypeFolder ResourceType = "FOLDER"
	ResourceTypeFlow   ResourceType = "FLOW"
)

func (t ResourceType) Valid() bool {
	return t == ResourceTypeFolder || t == ResourceTypeFlow
}

// PermissionType is one grantable action on one resource.
type PermissionType string

const (
	PermissionRead              PermissionType = "READ"
	PermissionWrite             PermissionType = "WRITE"
	PermissionRun               PermissionType = "RUN"
	PermissionDelete            PermissionType = "DELETE"
	PermissionManagePermissions PermissionType = "MANAGE_PERMISSIONS"
)

func (t PermissionType) Valid() bool {
	switch t {
	case PermissionRead, PermissionWrite, PermissionRun, PermissionDelete, PermissionManagePermissions:
		return true
	}
	return false
}

// ResourcePermission is one grant row. At most one row exists per
// (grantee, resource_id, resource_type, permission_type) tuple; granting an
// already-held permission refreshes updated_at on the existing row.
type ResourcePermission struct {
	BaseModel
	PermissionId    string         `gorm:"column:permission_id;uniqueIndex" json:"permissionId"`
	GranteeUserId   string         `gorm:"column:grantee_user_id;not null;index:idx_grant,unique;index:idx_grantee" json:"granteeUserId"`
	ResourceId      string         `gorm:"column:resource_id;not null;index:idx_grant,unique;index:idx_resource" json:"resourceId"`
	ResourceType    ResourceType   `gorm:"column:resource_type;not null;index:idx_grant,unique;index:idx_resource" json:"resourceType"`
	PermissionType  PermissionType `gorm:"column:permission_type;not null;index:idx_grant,unique" json:"permissionType"`
	GrantedByUserId string         `gorm:"column:granted_by_user_id" json:"grantedByUserId"`
}

func (ResourcePermission) TableName() string {
	return "t_resource_permission"
}

// Capability is the resolved capability set for one (user, resource) pair.
type Capability struct {
	CanRead              bool `json:"canRead"`
	CanRun               bool `json:"canRun"`
	CanEdit              bool `json:"canEdit"`
	CanDelete            bool `json:"canDelete"`
	CanManagePermissions bool `json:"canManagePermissions"`
	IsProjectAdmin       bool `json:"isProjectAdmin"`
}

// AllCapabilities is the SUPER_ADMIN capability set.
func AllCapabilities() Capability {
	return Capability{
		CanRead:              true,
		CanRun:               true,
		CanEdit:              true,
		CanDelete:            true,
		CanManagePermissions: true,
		IsProjectAdmin:       true,
	}
}

// Apply folds one granted permission type into the capability set. Grants
// only ever add capabilities; absence of a row leaves the field false.
func (c *Capability) Apply(t PermissionType) {
	switch t {
	case PermissionRead:
		c.CanRead = true
	case PermissionWrite:
		c.CanEdit = true
	case PermissionRun:
		c.CanRun = true
	case PermissionDelete:
		c.CanDelete = true
	case PermissionManagePermissions:
		c.CanManagePermissions = true
	}
}

// ResourceRef locates a resource for capability resolution: a project, a
// flow, or a flow nested in a project.
type ResourceRef struct {
	ProjectId string
	FlowId    string
}

// GrantReq is the body of POST /{folders|flows}/:id/permissions.
type GrantReq struct {
	GranteeUserId  string         `json:"granteeUserId"`
	PermissionType PermissionType `json:"permissionType"`
}

// UpdateFlowUserReq is the body of PATCH /flows/:id/users/:userId. Nil
// fields leave the corresponding grant untouched.
type UpdateFlowUserReq struct {
	CanRead *bool `json:"canRead,omitempty"`
	CanRun  *bool `json:"canRun,omitempty"`
	CanEdit *bool `json:"canEdit,omitempty"`
}

// FlowUserRow is the list shape for GET /flows/:id/users.
type FlowUserRow struct {
	UserId   string `json:"userId"`
	Username string `json:"username"`
	CanRead  bool   `json:"canRead"`
	CanRun   bool   `json:"canRun"`
	CanEdit  bool   `json:"canEdit"`
}

type FlowUserList struct {
	Users []FlowUserRow `json:"users"`
}

// FlowPermissionResp is the effective capability block the UI renders for
// the current user on one flow.
type FlowPermissionResp struct {
	CanRead bool `json:"canRead"`
	CanRun  bool `json:"canRun"`
	CanEdit bool `json:"canEdit"`
}
