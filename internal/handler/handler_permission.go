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

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/observabil/flowgate/internal/model"
	"github.com/observabil/flowgate/internal/service"
	"github.com/observabil/flowgate/pkg/http"
)

// PermissionHandler serves grant management on flows and folders.
type PermissionHandler struct {
	permissionService *service.PermissionService
}

func NewPermissionHandler(permissionService *service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

func (h *PermissionHandler) grant(c *fiber.Ctx, resourceType model.ResourceType) error {
	var req model.GrantReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErr(c, http.RequestParameterParsingFailed, c.Path())
	}
	if req.GranteeUserId == "" || !req.PermissionType.Valid() {
		return http.WithRepErrMsg(c, http.BadRequest, "granteeUserId and a valid permissionType are required", c.Path())
	}
	grant, err := h.permissionService.Grant(c.Context(), actingUser(c), c.Params("id"), resourceType, &req)
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, grant)
}

func (h *PermissionHandler) revoke(c *fiber.Ctx, resourceType model.ResourceType) error {
	permissionType := model.PermissionType(c.Params("type"))
	if !permissionType.Valid() {
		return http.WithRepErrMsg(c, http.BadRequest, "invalid permission type", c.Path())
	}
	err := h.permissionService.Revoke(c.Context(), actingUser(c), c.Params("id"), resourceType, c.Params("userId"), permissionType)
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepMsg(c, http.Success.Code, http.Success.Msg)
}

// GrantFlow POST /flows/:id/permissions
func (h *PermissionHandler) GrantFlow(c *fiber.Ctx) error {
	return h.grant(c, model.ResourceTypeFlow)
}

// RevokeFlow DELETE /flows/:id/permissions/:userId/:type
func (h *PermissionHandler) RevokeFlow(c *fiber.Ctx) error {
	return h.revoke(c, model.ResourceTypeFlow)
}

// GrantFolder POST /folders/:id/permissions
func (h *PermissionHandler) GrantFolder(c *fiber.Ctx) error {
	return h.grant(c, model.ResourceTypeFolder)
}

// RevokeFolder DELETE /folders/:id/permissions/:userId/:type
func (h *PermissionHandler) RevokeFolder(c *fiber.Ctx) error {
	return h.revoke(c, model.ResourceTypeFolder)
}

// MyFlowPermissions GET /flows/:id/permissions
func (h *PermissionHandler) MyFlowPermissions(c *fiber.Ctx) error {
	perms, err := h.permissionService.MyFlowPermissions(c.Context(), actingUser(c), c.Params("id"))
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, perms)
}

// ListFlowUsers GET /flows/:id/users
func (h *PermissionHandler) ListFlowUsers(c *fiber.Ctx) error {
	list, err := h.permissionService.ListFlowUsers(c.Context(), actingUser(c), c.Params("id"))
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, list)
}

// UpdateFlowUser PATCH /flows/:id/users/:userId
func (h *PermissionHandler) UpdateFlowUser(c *fiber.Ctx) error {
	var req model.UpdateFlowUserReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErr(c, http.RequestParameterParsingFailed, c.Path())
	}
	row, err := h.permissionService.UpdateFlowUser(c.Context(), actingUser(c), c.Params("id"), c.Params("userId"), &req)
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, row)
}
