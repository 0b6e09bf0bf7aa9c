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
	"gorm.io/datatypes"
)

// FlowHandler serves flow reads, saves, and lock transitions.
type FlowHandler struct {
	flowService *service.FlowService
	lockService *service.LockService
}

func NewFlowHandler(flowService *service.FlowService, lockService *service.LockService) *FlowHandler {
	return &FlowHandler{flowService: flowService, lockService: lockService}
}

// GetFlow GET /flows/:id
func (h *FlowHandler) GetFlow(c *fiber.Ctx) error {
	flow, err := h.flowService.GetFlow(c.Context(), actingUser(c), c.Params("id"))
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, flow)
}

// ListFlows GET /projects/:id/flows
func (h *FlowHandler) ListFlows(c *fiber.Ctx) error {
	flows, err := h.flowService.ListFlows(c.Context(), actingUser(c), c.Params("id"))
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, flows)
}

type createFlowReq struct {
	ProjectId   string         `json:"projectId"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Data        datatypes.JSON `json:"data"`
}

// CreateFlow POST /flows
func (h *FlowHandler) CreateFlow(c *fiber.Ctx) error {
	var req createFlowReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErr(c, http.RequestParameterParsingFailed, c.Path())
	}
	if req.ProjectId == "" || req.Name == "" {
		return http.WithRepErrMsg(c, http.BadRequest, "projectId and name are required", c.Path())
	}
	flow, err := h.flowService.CreateFlow(c.Context(), actingUser(c), req.ProjectId, req.Name, req.Description, req.Data)
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, flow)
}

// DeleteFlow DELETE /flows/:id
func (h *FlowHandler) DeleteFlow(c *fiber.Ctx) error {
	if err := h.flowService.DeleteFlow(c.Context(), actingUser(c), c.Params("id")); err != nil {
		return replyErr(c, err)
	}
	return http.WithRepMsg(c, http.Success.Code, http.Success.Msg)
}

// SaveFlow PATCH /flows/:id
func (h *FlowHandler) SaveFlow(c *fiber.Ctx) error {
	var req model.SaveFlowReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErr(c, http.RequestParameterParsingFailed, c.Path())
	}
	flow, err := h.flowService.Save(c.Context(), actingUser(c), c.Params("id"), &req)
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, flow)
}

// CheckRun POST /flows/:id/run-check
func (h *FlowHandler) CheckRun(c *fiber.Ctx) error {
	ok, err := h.flowService.CheckRun(c.Context(), actingUser(c), c.Params("id"))
	if err != nil {
		return replyErr(c, err)
	}
	if !ok {
		return http.WithRepErr(c, http.PermissionDenied, c.Path())
	}
	return http.WithRepJSON(c, fiber.Map{"canRun": true})
}

// AcquireLock POST /flows/:id/lock
func (h *FlowHandler) AcquireLock(c *fiber.Ctx) error {
	state, err := h.lockService.Acquire(c.Context(), actingUser(c), c.Params("id"))
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, state)
}

// ReleaseLock POST /flows/:id/unlock
func (h *FlowHandler) ReleaseLock(c *fiber.Ctx) error {
	state, err := h.lockService.Release(c.Context(), actingUser(c), c.Params("id"))
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, state)
}

// InspectLock GET /flows/:id/lock
func (h *FlowHandler) InspectLock(c *fiber.Ctx) error {
	state, err := h.lockService.Inspect(c.Context(), actingUser(c), c.Params("id"))
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, state)
}
