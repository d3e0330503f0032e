package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

const feedWriteTimeout = 5 * time.Second

// handleRunFeed streams completed-run events to a websocket client. Each
// message is a JSON-encoded runs.Event. Slow clients are disconnected
// rather than allowed to stall the feed.
func (s *Server) handleRunFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "feed closed")

	events, cancel := s.service.Feed().Subscribe()
	defer cancel()

	s.log.Info().Str("remote", r.RemoteAddr).Msg("Run feed client connected")

	// The feed is write-only; CloseRead keeps control frames serviced and
	// cancels the context when the client goes away.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				s.log.Error().Err(err).Msg("Failed to encode run event")
				continue
			}

			writeCtx, cancelWrite := context.WithTimeout(ctx, feedWriteTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancelWrite()
			if err != nil {
				status := websocket.CloseStatus(err)
				if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
					s.log.Warn().Err(err).Msg("Run feed write failed")
				}
				return
			}
		}
	}
}
