package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/croftbox/vidpipe/internal/domain"
	"github.com/croftbox/vidpipe/internal/infrastructure/logger"
)

type uploadResponse struct {
	Video      *domain.Video `json:"video"`
	Processing bool          `json:"processing"`
	Message    string        `json:"message"`
}

// handleUploadVideo accepts a multipart upload and starts the pipeline.
// When processing outlives the caller wait the response reports the
// intermediate status and the client is expected to poll.
func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}
	description := r.FormValue("description")

	logger.Info.Printf("upload request: %s (%d bytes) from %s",
		logger.SanitizeForLog(title), len(data), userID(r))

	video, terminal, err := s.videos.Upload(r.Context(), userID(r), title, description, data)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := uploadResponse{Video: video, Processing: !terminal}
	status := http.StatusCreated
	if terminal {
		resp.Message = "processing finished"
	} else {
		resp.Message = "processing continues in background; poll the progress endpoint"
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	video, err := s.videos.Get(r.Context(), chi.URLParam(r, "videoID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	view, err := s.videos.Progress(r.Context(), chi.URLParam(r, "videoID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
