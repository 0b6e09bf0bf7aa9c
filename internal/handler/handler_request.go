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

// RequestHandler serves the project request workflow.
type RequestHandler struct {
	requestService *service.RequestService
}

func NewRequestHandler(requestService *service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// Submit POST /project-requests
func (h *RequestHandler) Submit(c *fiber.Ctx) error {
	var req model.SubmitRequestReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErr(c, http.RequestParameterParsingFailed, c.Path())
	}
	if req.ProjectName == "" {
		return http.WithRepErrMsg(c, http.BadRequest, "projectName is required", c.Path())
	}
	request, err := h.requestService.Submit(c.Context(), actingUser(c), &req)
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, request)
}

// List GET /project-requests?status=PENDING
func (h *RequestHandler) List(c *fiber.Ctx) error {
	status := model.ProjectRequestStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return http.WithRepErrMsg(c, http.BadRequest, "invalid status filter", c.Path())
	}
	rows, err := h.requestService.List(c.Context(), actingUser(c), status)
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, rows)
}

// Get GET /project-requests/:id
func (h *RequestHandler) Get(c *fiber.Ctx) error {
	request, err := h.requestService.Get(c.Context(), actingUser(c), c.Params("id"))
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, request)
}

// Resolve PATCH /project-requests/:id
func (h *RequestHandler) Resolve(c *fiber.Ctx) error {
	var req model.ResolveRequestReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErr(c, http.RequestParameterParsingFailed, c.Path())
	}
	request, err := h.requestService.Resolve(c.Context(), actingUser(c), c.Params("id"), &req)
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, request)
}
