package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamNotifications upgrades the request to a websocket and pushes every
// notification raised in the session as a JSON text message.
func (api *APIHandler) StreamNotifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	logger := api.logger.With(
		zap.String("request.id", requestID),
		zap.String("session.id", GetValueFromContext(r.Context(), ContextSessionID)),
	)

	ws, err := api.workspace(r)
	if err != nil {
		logger.Error("failed to get session workspace", zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to open the session workspace.", EmptyData)
		if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied to the client.
		logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	notifications, cancel := ws.Hub().Subscribe()
	defer cancel()
	logger.Info("websocket client connected")

	// incoming messages are ignored. reading detects the close.
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			logger.Info("websocket client disconnected")
			return
		case <-r.Context().Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			data, err := codec.Marshal(n)
			if err != nil {
				logger.Error("failed to encode notification", zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Warn("failed to push notification", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
