package handler

import (
	"net/http"

	"objectmonitor/internal/logger"
	"objectmonitor/internal/service/websocket"

	gws "github.com/gorilla/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = gws.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatsWebsocketHandler registers viewers in the hub so they receive every
// published detection summary. The initial summary is sent right away.
func StatsWebsocketHandler(hub *websocket.HubService, stats StatsReader, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		current := stats.Stats()
		current.MotionDetected = nil // hub broadcasts carry no motion reading
		if err := connection.WriteJSON(current); err != nil {
			connection.Close()
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		// Viewers never send anything; reading only detects the close.
		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if !gws.IsCloseError(err, gws.CloseNormalClosure, gws.CloseGoingAway) {
					logger.Warning("Stats viewer disconnected with error: %v", err)
				}
				return
			}
		}
	}
}
