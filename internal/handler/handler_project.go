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

// ProjectHandler serves project membership management.
type ProjectHandler struct {
	memberService *service.MemberService
}

func NewProjectHandler(memberService *service.MemberService) *ProjectHandler {
	return &ProjectHandler{memberService: memberService}
}

// ListUsers GET /projects/:id/users
func (h *ProjectHandler) ListUsers(c *fiber.Ctx) error {
	list, err := h.memberService.ListMembers(c.Context(), actingUser(c), c.Params("id"))
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, list)
}

type addMemberReq struct {
	UserId string            `json:"userId"`
	Flags  model.MemberFlags `json:"flags"`
}

// AddUser POST /projects/:id/users
func (h *ProjectHandler) AddUser(c *fiber.Ctx) error {
	var req addMemberReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErr(c, http.RequestParameterParsingFailed, c.Path())
	}
	if req.UserId == "" {
		return http.WithRepErrMsg(c, http.BadRequest, "userId is required", c.Path())
	}
	member, err := h.memberService.AddMember(c.Context(), actingUser(c), c.Params("id"), req.UserId, req.Flags)
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, member)
}

// UpdateUser PATCH /projects/:id/users/:userId
func (h *ProjectHandler) UpdateUser(c *fiber.Ctx) error {
	var flags model.MemberFlags
	if err := c.BodyParser(&flags); err != nil {
		return http.WithRepErr(c, http.RequestParameterParsingFailed, c.Path())
	}
	member, err := h.memberService.UpdateMember(c.Context(), actingUser(c), c.Params("id"), c.Params("userId"), &flags)
	if err != nil {
		return replyErr(c, err)
	}
	return http.WithRepJSON(c, member)
}

// RemoveUser DELETE /projects/:id/users/:userId
func (h *ProjectHandler) RemoveUser(c *fiber.Ctx) error {
	if err := h.memberService.RemoveMember(c.Context(), actingUser(c), c.Params("id"), c.Params("userId")); err != nil {
		return replyErr(c, err)
	}
	return http.WithRepMsg(c, http.Success.Code, http.Success.Msg)
}
