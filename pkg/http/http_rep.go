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

package http

import (
	"github.com/gofiber/fiber/v2"
)

// Response is the unified JSON envelope for every API reply. Status is the
// HTTP status the envelope is served with and is not part of the body.
type Response struct {
	Status int    `json:"-"`
	Code   int    `json:"code"`
	Detail any    `json:"detail,omitempty"`
	Msg    string `json:"msg"`
}

// WithRepJSON returns a success envelope carrying detail.
func WithRepJSON(c *fiber.Ctx, detail any) error {
	return c.JSON(Response{
		Code:   Success.Code,
		Detail: detail,
		Msg:    Success.Msg,
	})
}

// WithRepMsg returns a custom code and msg without detail.
func WithRepMsg(c *fiber.Ctx, code int, msg string) error {
	return c.JSON(Response{
		Code: code,
		Msg:  msg,
	})
}

// WithRepDetail returns a custom code, msg and detail.
func WithRepDetail(c *fiber.Ctx, code int, msg string, detail any) error {
	return c.JSON(Response{
		Code:   code,
		Detail: detail,
		Msg:    msg,
	})
}

// WithRepErr returns the error envelope rep with its HTTP status and the
// request path as detail.
func WithRepErr(c *fiber.Ctx, rep *Response, path string) error {
	status := rep.Status
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(Response{
		Code:   rep.Code,
		Detail: path,
		Msg:    rep.Msg,
	})
}

// WithRepErrMsg returns an error envelope with a custom message and the
// request path as detail.
func WithRepErrMsg(c *fiber.Ctx, rep *Response, msg string, path string) error {
	status := rep.Status
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(Response{
		Code:   rep.Code,
		Detail: path,
		Msg:    msg,
	})
}

// WithRepErrDetail returns an error envelope carrying a structured detail
// payload instead of the request path.
func WithRepErrDetail(c *fiber.Ctx, rep *Response, msg string, detail any) error {
	status := rep.Status
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(Response{
		Code:   rep.Code,
		Detail: detail,
		Msg:    msg,
	})
}
