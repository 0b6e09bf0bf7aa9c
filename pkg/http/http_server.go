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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/observabil/flowgate/pkg/log"
)

// Server starts the fiber app and blocks until SIGINT or SIGTERM, then
// shuts down gracefully within ShutdownTimeout.
func Server(cfg Http, app *fiber.App) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("http server on %s failed: %v", addr, err)
		}
	}()
	log.Infof("http server listening on %s", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	timeout := time.Duration(cfg.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log.Info("shutting down http server")
	if err := app.ShutdownWithTimeout(timeout); err != nil {
		log.Errorf("http server shutdown failed: %v", err)
	}
}
