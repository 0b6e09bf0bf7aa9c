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

package middleware

import (
	"errors"
	"strings"

	goJwt "github.com/golang-jwt/jwt/v5"
	"github.com/gofiber/fiber/v2"
	httpx "github.com/observabil/flowgate/pkg/http"
	"github.com/observabil/flowgate/pkg/http/jwt"
	"github.com/observabil/flowgate/pkg/log"
)

// UserIdKey is the fiber locals key holding the authenticated caller id.
const UserIdKey = "user_id"

// AuthorizationMiddleware validates the bearer token and stores the caller
// identity in locals. Every core operation receives the acting user
// explicitly from here; nothing reads identity from a global.
func AuthorizationMiddleware(secretKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return httpx.WithRepErr(c, httpx.AuthorizationEmpty, c.Path())
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return httpx.WithRepErr(c, httpx.InvalidToken, c.Path())
		}

		claims, err := jwt.ParseToken(parts[1], secretKey)
		if err != nil {
			if errors.Is(err, goJwt.ErrTokenExpired) {
				return httpx.WithRepErr(c, httpx.TokenExpired, c.Path())
			}
			log.Errorf("parse token failed: %v", err)
			return httpx.WithRepErr(c, httpx.InvalidToken, c.Path())
		}

		c.Locals(UserIdKey, claims.UserId)
		return c.Next()
	}
}
