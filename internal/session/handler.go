package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/voxlink-ai/voxlink/internal/api"
	"github.com/voxlink-ai/voxlink/internal/voice"
)

type Handler struct {
	mgr      *Manager
	validate *validator.Validate
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{
		mgr:      mgr,
		validate: validator.New(),
	}
}

// SubmitTextRequest is the body of POST /sessions/{sessionID}/text.
type SubmitTextRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// PlaybackDoneRequest is the body of POST /sessions/{sessionID}/playback-done.
type PlaybackDoneRequest struct {
	Error string `json:"error,omitempty"`
}

type sessionCreatedResponse struct {
	SessionID uuid.UUID      `json:"session_id"`
	Snapshot  voice.Snapshot `json:"snapshot"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.mgr.Create()
	api.JSON(w, http.StatusCreated, sessionCreatedResponse{
		SessionID: s.ID,
		Snapshot:  s.Engine.Snapshot(),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	api.JSON(w, http.StatusOK, s.Engine.Snapshot())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid session ID"))
		return
	}
	if !h.mgr.Delete(id) {
		api.HandleError(w, api.ErrNotFound)
		return
	}
	api.JSONMessage(w, http.StatusOK, "session ended")
}

func (h *Handler) SubmitText(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req SubmitTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	s.Touch()
	if err := s.Engine.SubmitText(req.Text); err != nil {
		h.handleEngineError(w, err)
		return
	}
	api.JSON(w, http.StatusAccepted, s.Engine.Snapshot())
}

func (h *Handler) ToggleCapture(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	s.Touch()
	if err := s.Engine.ToggleVoiceCapture(); err != nil {
		h.handleEngineError(w, err)
		return
	}
	api.JSON(w, http.StatusAccepted, s.Engine.Snapshot())
}

func (h *Handler) PlaybackDone(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req PlaybackDoneRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.HandleError(w, api.ErrBadRequest)
			return
		}
	}

	s.Touch()
	var playErr error
	if req.Error != "" {
		playErr = errors.New(req.Error)
	}
	s.Engine.NotifyPlaybackDone(playErr)
	api.JSON(w, http.StatusAccepted, s.Engine.Snapshot())
}

// GetClip serves one synthesized audio clip as raw bytes.
func (h *Handler) GetClip(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	clipID, err := uuid.Parse(chi.URLParam(r, "clipID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid clip ID"))
		return
	}
	clip, ok := s.Engine.Clip(clipID)
	if !ok {
		api.HandleError(w, api.ErrNotFound)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(clip)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *Session {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid session ID"))
		return nil
	}
	s := h.mgr.Get(id)
	if s == nil {
		api.HandleError(w, api.ErrNotFound)
		return nil
	}
	return s
}

func (h *Handler) handleEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, voice.ErrEmptyText):
		api.HandleError(w, api.NewBadRequestError("text must not be empty"))
	case errors.Is(err, voice.ErrBusy):
		api.HandleError(w, api.ErrTurnInFlight)
	case errors.Is(err, voice.ErrVoiceUnavailable):
		api.HandleError(w, api.ErrVoiceUnavailable)
	case errors.Is(err, voice.ErrSessionEnded):
		api.HandleError(w, api.ErrNotFound)
	default:
		api.HandleError(w, api.ErrInternalServer)
	}
}
