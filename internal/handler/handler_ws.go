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
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/observabil/flowgate/internal/service"
	"github.com/observabil/flowgate/pkg/http/middleware"
	"github.com/observabil/flowgate/pkg/log"
)

const wsPingInterval = 30 * time.Second

// WsHandler streams lock events over websocket.
type WsHandler struct {
	lockService *service.LockService
}

func NewWsHandler(lockService *service.LockService) *WsHandler {
	return &WsHandler{lockService: lockService}
}

// LockEvents GET /ws/flows/:id/lock (after upgrade). The connection first
// receives the current lock state, then every subsequent lock event for
// the flow until the client disconnects.
func (h *WsHandler) LockEvents(conn *websocket.Conn) {
	defer conn.Close()

	flowId := conn.Params("id")
	userId, _ := conn.Locals(middleware.UserIdKey).(string)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state, err := h.lockService.Inspect(ctx, userId, flowId)
	if err != nil {
		rep := errEnvelope(err)
		_ = conn.WriteJSON(map[string]any{"code": rep.Code, "msg": rep.Msg})
		return
	}
	if err := conn.WriteJSON(state); err != nil {
		return
	}

	sub := h.lockService.Subscribe(ctx, flowId)
	defer sub.Close()

	// Drain client frames so close frames are processed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	events := sub.Channel()
	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Debugf("lock event write for flow %s failed: %v", flowId, err)
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
