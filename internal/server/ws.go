package server

import (
	"net/http"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"puzzleboard/internal/autoplay"
)

// handleWatchSocket streams self-play frames to the watch page. Each client
// gets its own buffered channel; a client that cannot keep up misses frames
// rather than stalling the driver.
func (h *Handler) handleWatchSocket(w http.ResponseWriter, r *http.Request) {
	if h.driver == nil {
		http.Error(w, "autoplay disabled", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch := make(chan autoplay.Frame, 16)
	h.driver.AddWatcher(ch)
	defer h.driver.RemoveWatcher(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-ch:
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				return
			}
		}
	}
}
