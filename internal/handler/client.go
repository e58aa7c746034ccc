package handler

import (
	"net/http"
	"slices"

	"eppdetect/internal/logger"
	"eppdetect/internal/service"

	"github.com/gorilla/websocket"
)

const maxCameraFrame = 8 << 20

// NewUpgrader returns a websocket upgrader accepting the given origins. An
// empty list or "*" accepts every origin.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
}

// ViewWebsocketHandler handles viewer connections over WebSocket and
// registers them in the HubService to receive live events.
func ViewWebsocketHandler(manager *service.Manager, upgrader websocket.Upgrader, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		manager.Hub().Register(connection)
		defer manager.Hub().Unregister(connection)

		logger.Info("Viewer connected")

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Error("Viewer disconnected with error: %v", err)
				}
				break
			}
		}
	}
}

// CameraWebsocketHandler accepts a live camera stream on /api/camera?id=.
// Every binary message is one JPEG frame.
func CameraWebsocketHandler(manager *service.Manager, upgrader websocket.Upgrader, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camera := r.URL.Query().Get("id")
		if camera == "" {
			respondError(w, "Camera id required", http.StatusBadRequest)
			return
		}

		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("Camera %s upgrade error: %v", camera, err)
			return
		}
		defer connection.Close()
		connection.SetReadLimit(maxCameraFrame)

		logger.Info("📷 Camera %s connected", camera)
		for {
			kind, frame, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Camera %s disconnected", camera)
				} else {
					logger.Error("Camera %s disconnected with error: %v", camera, err)
				}
				return
			}
			if kind != websocket.BinaryMessage {
				continue
			}
			manager.HandleCameraFrame(frame, camera)
		}
	}
}
