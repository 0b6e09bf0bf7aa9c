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

package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/observabil/flowgate/internal/handler"
	"github.com/observabil/flowgate/pkg/http"
	"github.com/observabil/flowgate/pkg/http/middleware"
	"github.com/observabil/flowgate/pkg/metrics"
	"github.com/observabil/flowgate/pkg/version"
)

type Router struct {
	Http              *http.Http
	flowHandler       *handler.FlowHandler
	permissionHandler *handler.PermissionHandler
	projectHandler    *handler.ProjectHandler
	requestHandler    *handler.RequestHandler
	wsHandler         *handler.WsHandler
}

func NewRouter(
	httpConf *http.Http,
	flowHandler *handler.FlowHandler,
	permissionHandler *handler.PermissionHandler,
	projectHandler *handler.ProjectHandler,
	requestHandler *handler.RequestHandler,
	wsHandler *handler.WsHandler,
) *Router {
	return &Router{
		Http:              httpConf,
		flowHandler:       flowHandler,
		permissionHandler: permissionHandler,
		projectHandler:    projectHandler,
		requestHandler:    requestHandler,
		wsHandler:         wsHandler,
	}
}

func (rt *Router) Router() *fiber.App {
	bodyLimit := rt.Http.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 10 * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:      "Flowgate",
		ReadTimeout:  time.Duration(rt.Http.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(rt.Http.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(rt.Http.IdleTimeout) * time.Second,
		BodyLimit:    bodyLimit,
	})

	app.Use(
		fiberrecover.New(),
		cors.New(),
	)
	app.Use(middleware.AccessLogMiddleware(rt.Http))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.GetVersion())
	})
	if rt.Http.ExposeMetrics {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.NewRegistry(), promhttp.HandlerOpts{})))
	}

	auth := middleware.AuthorizationMiddleware(rt.Http.Auth.SecretKey)

	api := app.Group("/api/v1", auth)

	flows := api.Group("/flows")
	flows.Post("/", rt.flowHandler.CreateFlow)
	flows.Get("/:id", rt.flowHandler.GetFlow)
	flows.Patch("/:id", rt.flowHandler.SaveFlow)
	flows.Delete("/:id", rt.flowHandler.DeleteFlow)
	flows.Post("/:id/lock", rt.flowHandler.AcquireLock)
	flows.Post("/:id/unlock", rt.flowHandler.ReleaseLock)
	flows.Get("/:id/lock", rt.flowHandler.InspectLock)
	flows.Post("/:id/run-check", rt.flowHandler.CheckRun)
	flows.Get("/:id/permissions", rt.permissionHandler.MyFlowPermissions)
	flows.Post("/:id/permissions", rt.permissionHandler.GrantFlow)
	flows.Delete("/:id/permissions/:userId/:type", rt.permissionHandler.RevokeFlow)
	flows.Get("/:id/users", rt.permissionHandler.ListFlowUsers)
	flows.Patch("/:id/users/:userId", rt.permissionHandler.UpdateFlowUser)

	folders := api.Group("/folders")
	folders.Post("/:id/permissions", rt.permissionHandler.GrantFolder)
	folders.Delete("/:id/permissions/:userId/:type", rt.permissionHandler.RevokeFolder)

	projects := api.Group("/projects")
	projects.Get("/:id/flows", rt.flowHandler.ListFlows)
	projects.Get("/:id/users", rt.projectHandler.ListUsers)
	projects.Post("/:id/users", rt.projectHandler.AddUser)
	projects.Patch("/:id/users/:userId", rt.projectHandler.UpdateUser)
	projects.Delete("/:id/users/:userId", rt.projectHandler.RemoveUser)

	requests := api.Group("/project-requests")
	requests.Post("/", rt.requestHandler.Submit)
	requests.Get("/", rt.requestHandler.List)
	requests.Get("/:id", rt.requestHandler.Get)
	requests.Patch("/:id", rt.requestHandler.Resolve)

	ws := app.Group("/ws", auth, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/flows/:id/lock", websocket.New(rt.wsHandler.LockEvents))

	app.Use(func(c *fiber.Ctx) error {
		return http.WithRepErrMsg(c, http.NotFound, "request path not found", c.Path())
	})

	return app
}
