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
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/observabil/flowgate/internal/errs"
	httpx "github.com/observabil/flowgate/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyErr_StatusAndCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"permission denied", errs.ErrPermissionDenied, fiber.StatusForbidden, httpx.PermissionDenied.Code},
		{"not lock holder", errs.ErrNotLockHolder, fiber.StatusForbidden, httpx.NotLockHolder.Code},
		{"self modification denied", errs.ErrSelfModificationDenied, fiber.StatusForbidden, httpx.SelfModificationDenied.Code},
		{"not locked", errs.ErrNotLocked, fiber.StatusConflict, httpx.NotLocked.Code},
		{"locked by other", errs.ErrLockedByOther, fiber.StatusConflict, httpx.LockedByOther.Code},
		{"already resolved", errs.ErrAlreadyResolved, fiber.StatusConflict, httpx.AlreadyResolved.Code},
		{"conflicting update", errs.ErrConflictingUpdate, fiber.StatusConflict, httpx.ConflictingUpdate.Code},
		{"not found", errs.ErrNotFound, fiber.StatusNotFound, httpx.NotFound.Code},
		{"already locked", &errs.AlreadyLockedError{FlowId: "f1", Holder: "alice", Since: time.Now()}, fiber.StatusConflict, httpx.AlreadyLocked.Code},
		{"unknown error", io.ErrUnexpectedEOF, fiber.StatusInternalServerError, httpx.InternalError.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/boom", func(c *fiber.Ctx) error {
				return replyErr(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body httpx.Response
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestReplyErr_AlreadyLockedCarriesHolder(t *testing.T) {
	since := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return replyErr(c, &errs.AlreadyLockedError{FlowId: "f1", Holder: "alice", Since: since})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Code   int                `json:"code"`
		Msg    string             `json:"msg"`
		Detail lockConflictDetail `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Msg, "alice", "message names the holder")
	assert.Equal(t, "alice", body.Detail.Holder)
	assert.True(t, since.Equal(body.Detail.Since), "detail carries the lock timestamp")
	assert.Equal(t, "/boom", body.Detail.Path)
}

func TestErrEnvelope_NeverLeaksInternalText(t *testing.T) {
	rep := errEnvelope(io.ErrUnexpectedEOF)
	assert.Equal(t, httpx.InternalError.Code, rep.Code)
	assert.NotContains(t, rep.Msg, io.ErrUnexpectedEOF.Error())

	rep = errEnvelope(errs.ErrPermissionDenied)
	assert.Equal(t, httpx.PermissionDenied.Code, rep.Code)
}
