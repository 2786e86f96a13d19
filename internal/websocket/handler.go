package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/pagequest/internal/auth"
	"github.com/dukerupert/pagequest/internal/metrics"
)

// HandleStream upgrades an authenticated device request to a websocket and
// serves device events on it until the device disconnects.
func HandleStream(hub *Hub, events EventHandler, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == 0 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // device clients send no Origin
		})
		if err != nil {
			logger.Warn("device stream accept", "error", err)
			return
		}
		defer conn.CloseNow()

		metrics.DeviceStreamOpened()
		defer metrics.DeviceStreamClosed()
		logger.Info("device stream opened", "user_id", userID)

		client := NewClient(hub, conn, userID, events)
		client.Run(r.Context())

		logger.Info("device stream closed", "user_id", userID)
	}
}
