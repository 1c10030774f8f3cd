package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/connectors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// QuoteStreamHandler upgrades the connection and pushes quote snapshots for
// the requested symbols until the client goes away.
func QuoteStreamHandler(quotes connectors.QuoteService, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("symbols")
		if raw == "" {
			http.Error(w, "symbols is required", http.StatusBadRequest)
			return
		}
		symbols := strings.Split(strings.ToUpper(raw), ",")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Error("websocket upgrade failed")
			return
		}
		defer conn.Close()

		// reader goroutine only to notice the peer closing
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			snapshot, err := quotes.GetQuotes(r.Context(), symbols)
			if err != nil {
				logger.WithError(err).Warn("quote refresh failed, keeping stream open")
			} else if err := conn.WriteJSON(snapshot); err != nil {
				return
			}

			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}
		}
	}
}
