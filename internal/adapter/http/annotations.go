package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/croftbox/vidpipe/internal/domain"
)

type createAnnotationRequest struct {
	Type      domain.AnnotationType  `json:"type"`
	Timestamp float64                `json:"timestamp"`
	Drawing   *domain.DrawingPayload `json:"drawing,omitempty"`
	VoiceOver *voiceOverRequest      `json:"voice_over,omitempty"`
}

type voiceOverRequest struct {
	// AudioBase64 carries the clip inline; it is stored through the
	// object storage adapter, not the database.
	AudioBase64   string  `json:"audio_base64"`
	Format        string  `json:"format"`
	Duration      float64 `json:"duration"`
	Transcription string  `json:"transcription,omitempty"`
}

func (s *Server) handleCreateAnnotation(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	var req createAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var (
		annotation *domain.Annotation
		err        error
	)
	switch req.Type {
	case domain.AnnotationDrawing:
		if req.Drawing == nil {
			writeError(w, http.StatusBadRequest, "drawing payload required")
			return
		}
		annotation, err = s.annotations.CreateDrawing(r.Context(), videoID, userID(r), req.Timestamp, *req.Drawing)
	case domain.AnnotationVoiceOver:
		if req.VoiceOver == nil {
			writeError(w, http.StatusBadRequest, "voice_over payload required")
			return
		}
		var audio []byte
		audio, err = base64.StdEncoding.DecodeString(req.VoiceOver.AudioBase64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid audio encoding")
			return
		}
		annotation, err = s.annotations.CreateVoiceOver(r.Context(), videoID, userID(r), req.Timestamp,
			audio, req.VoiceOver.Format, req.VoiceOver.Duration, req.VoiceOver.Transcription)
	default:
		writeError(w, http.StatusBadRequest, "unknown annotation type")
		return
	}

	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, annotation)
}

type updateAnnotationRequest struct {
	Timestamp float64                `json:"timestamp"`
	Drawing   *domain.DrawingPayload `json:"drawing"`
}

func (s *Server) handleUpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	var req updateAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Drawing == nil {
		writeError(w, http.StatusBadRequest, "drawing payload required")
		return
	}

	annotation, err := s.annotations.UpdateDrawing(r.Context(), chi.URLParam(r, "annotationID"), userID(r), req.Timestamp, *req.Drawing)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, annotation)
}

func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	annotations, err := s.annotations.ListByVideo(r.Context(), chi.URLParam(r, "videoID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if annotations == nil {
		annotations = []*domain.Annotation{}
	}
	writeJSON(w, http.StatusOK, annotations)
}

func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	if err := s.annotations.Delete(r.Context(), chi.URLParam(r, "annotationID"), userID(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
