package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/croftbox/vidpipe/internal/domain"
	"github.com/croftbox/vidpipe/internal/infrastructure/logger"
	"github.com/croftbox/vidpipe/internal/service"
)

const sseKeepAliveInterval = 15 * time.Second

// handleEvents streams processing transitions for one video as
// server-sent events until the video reaches a terminal state or the
// client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	video, err := s.videos.Get(r.Context(), videoID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.eventBus.Subscribe(videoID)
	defer s.eventBus.Unsubscribe(videoID, events)

	// Send current state immediately so late subscribers aren't blind.
	sseWriteEvent(w, flusher, service.Event{
		VideoID: video.ID,
		Status:  video.Status,
	})
	if video.IsTerminal() {
		return
	}

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			sseWriteEvent(w, flusher, event)
			if event.Status == domain.VideoStatusReady || event.Status == domain.VideoStatusFailed {
				return
			}
		}
	}
}

func sseWriteEvent(w http.ResponseWriter, flusher http.Flusher, event service.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error.Printf("encode sse event: %v", err)
		return
	}
	fmt.Fprintf(w, "event: status\ndata: %s\n\n", payload)
	flusher.Flush()
}
