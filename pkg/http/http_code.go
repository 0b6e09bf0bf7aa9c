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

import "github.com/gofiber/fiber/v2"

var (
	Success = response(fiber.StatusOK, 200, "Request Success")

	BadRequest                    = response(fiber.StatusBadRequest, 4000, "Bad request")
	RequestParameterParsingFailed = response(fiber.StatusBadRequest, 4001, "Request parameter parsing failed")
	NotFound                      = response(fiber.StatusNotFound, 4004, "Not found")

	Unauthorized       = response(fiber.StatusUnauthorized, 4401, "Unauthorized")
	AuthorizationEmpty = response(fiber.StatusUnauthorized, 4404, "Authorization is empty")
	InvalidToken       = response(fiber.StatusUnauthorized, 4405, "Invalid token")
	TokenExpired       = response(fiber.StatusUnauthorized, 4407, "Token is expired")

	Forbidden              = response(fiber.StatusForbidden, 4030, "Forbidden")
	PermissionDenied       = response(fiber.StatusForbidden, 4031, "Permission denied")
	NotLockHolder          = response(fiber.StatusForbidden, 4032, "Not the lock holder")
	SelfModificationDenied = response(fiber.StatusForbidden, 4033, "Cannot modify the protected member row")

	Conflict          = response(fiber.StatusConflict, 4090, "Conflict")
	AlreadyLocked     = response(fiber.StatusConflict, 4091, "Flow is already locked by another user")
	NotLocked         = response(fiber.StatusConflict, 4092, "Flow is not locked")
	LockedByOther     = response(fiber.StatusConflict, 4093, "Flow is locked by another user")
	AlreadyResolved   = response(fiber.StatusConflict, 4094, "Project request is already resolved")
	ConflictingUpdate = response(fiber.StatusConflict, 4095, "Flow was updated concurrently, re-fetch and retry")

	InternalError = response(fiber.StatusInternalServerError, 5000, "Internal error, please contact the administrator")
)

func response(status, code int, msg string) *Response {
	return &Response{
		Status: status,
		Code:   code,
		Msg:    msg,
	}
}
