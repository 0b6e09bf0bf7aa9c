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

// Package handler adapts service results onto the JSON envelope. Every
// typed error condition maps to one envelope code with its real HTTP
// status; unknown errors become InternalError.
package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/observabil/flowgate/internal/errs"
	"github.com/observabil/flowgate/pkg/http"
	"github.com/observabil/flowgate/pkg/http/middleware"
)

// actingUser returns the authenticated user id set by the auth middleware.
func actingUser(c *fiber.Ctx) string {
	if v, ok := c.Locals(middleware.UserIdKey).(string); ok {
		return v
	}
	return ""
}

// errEnvelope maps a service error to its envelope entry. Shared by the
// HTTP reply path and the websocket handler so clients never see raw
// internal error text.
func errEnvelope(err error) *http.Response {
	if _, ok := errs.IsAlreadyLocked(err); ok {
		return http.AlreadyLocked
	}
	switch {
	case errors.Is(err, errs.ErrPermissionDenied):
		return http.PermissionDenied
	case errors.Is(err, errs.ErrNotLockHolder):
		return http.NotLockHolder
	case errors.Is(err, errs.ErrSelfModificationDenied):
		return http.SelfModificationDenied
	case errors.Is(err, errs.ErrNotLocked):
		return http.NotLocked
	case errors.Is(err, errs.ErrLockedByOther):
		return http.LockedByOther
	case errors.Is(err, errs.ErrAlreadyResolved):
		return http.AlreadyResolved
	case errors.Is(err, errs.ErrConflictingUpdate):
		return http.ConflictingUpdate
	case errors.Is(err, errs.ErrNotFound):
		return http.NotFound
	default:
		return http.InternalError
	}
}

// lockConflictDetail carries the holder identity of a contended lock so
// clients can render "locked by X since T" without parsing the message.
type lockConflictDetail struct {
	Holder string    `json:"holder"`
	Since  time.Time `json:"since"`
	Path   string    `json:"path"`
}

// replyErr maps a service error onto its envelope.
func replyErr(c *fiber.Ctx, err error) error {
	if lockErr, ok := errs.IsAlreadyLocked(err); ok {
		return http.WithRepErrDetail(c, http.AlreadyLocked, lockErr.Error(), lockConflictDetail{
			Holder: lockErr.Holder,
			Since:  lockErr.Since,
			Path:   c.Path(),
		})
	}
	rep := errEnvelope(err)
	switch rep {
	case http.NotFound, http.InternalError:
		return http.WithRepErrMsg(c, rep, err.Error(), c.Path())
	default:
		return http.WithRepErr(c, rep, c.Path())
	}
}
