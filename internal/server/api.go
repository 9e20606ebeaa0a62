package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/erenbektas/blossom/internal/store"
)

type apiError struct {
	Error string `json:"error"`
}

// volunteerView is a volunteer record enriched with the derived fields
// callers usually want alongside it.
type volunteerView struct {
	store.User
	Gamma int `json:"gamma"`
}

func (s *Server) volunteerView(r *http.Request, user *store.User) volunteerView {
	view := volunteerView{User: *user}

	gamma, err := s.store.Gamma(r.Context(), user.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to count transcriptions")
	}
	view.Gamma = gamma

	last, err := s.store.LastActive(r.Context(), user.ID)
	if err == nil {
		view.LastActive = last
	}
	return view
}

// handleSubmissionRemove marks a submission as removed from the queue
// (or restores it). Removing also clears any approval.
func (s *Server) handleSubmissionRemove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid submission id"})
		return
	}

	body := struct {
		RemovedFromQueue *bool `json:"removed_from_queue"`
	}{}
	// An empty body defaults to removal; malformed JSON is rejected.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}
	removed := true
	if body.RemovedFromQueue != nil {
		removed = *body.RemovedFromQueue
	}

	sub, err := s.store.SetSubmissionRemoved(r.Context(), id, removed)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "submission not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("submission_id", id).Msg("Failed to update submission")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// handleFind looks up a submission and its transcriptions from any
// associated URL.
func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	normalized := store.NormalizeURL(r.URL.Query().Get("url"))
	if normalized == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "url parameter is missing or not recognized"})
		return
	}

	result, err := s.store.FindByURL(r.Context(), normalized)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no submission matches that url"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("url", normalized).Msg("Failed to find submission")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleVolunteerCreate(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Username string `json:"username"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Username) == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "username is required"})
		return
	}
	username := strings.TrimSpace(body.Username)

	exists, err := s.store.UserExists(r.Context(), username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Failed to check volunteer")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}
	if exists {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: "volunteer already exists"})
		return
	}

	user, err := s.store.CreateUser(r.Context(), username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Failed to create volunteer")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, s.volunteerView(r, user))
}

func (s *Server) handleVolunteerSummary(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "username parameter is required"})
		return
	}

	user, err := s.store.UserByUsername(r.Context(), username)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "volunteer not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Failed to load volunteer")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, s.volunteerView(r, user))
}

// handleAcceptCoC records a volunteer's code of conduct acceptance.
// Accepting twice is a conflict.
func (s *Server) handleAcceptCoC(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "username parameter is required"})
		return
	}

	user, err := s.store.UserByUsername(r.Context(), username)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "volunteer not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}

	changed, err := s.store.AcceptCoC(r.Context(), user.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to record acceptance")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}
	if !changed {
		writeJSON(w, http.StatusConflict, apiError{Error: "code of conduct already accepted"})
		return
	}
	user.AcceptedCoC = true
	writeJSON(w, http.StatusOK, s.volunteerView(r, user))
}

// handleGammaPlusOne credits a volunteer with one dummy completed
// transcription. Meant for mod-initiated corrections, not normal flow.
func (s *Server) handleGammaPlusOne(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid volunteer id"})
		return
	}

	user, err := s.store.UserByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "volunteer not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}

	marker := "dummy-" + uuid.NewString()
	sub, err := s.store.CreateSubmission(r.Context(), store.Submission{
		URL:         marker,
		QueueURL:    marker,
		ClaimedBy:   &user.ID,
		CompletedBy: &user.ID,
	})
	if err == nil {
		err = s.store.CreateTranscription(r.Context(), store.Transcription{
			SubmissionID: sub.ID,
			AuthorID:     user.ID,
			OriginalID:   "dummy-" + uuid.NewString(),
			Text:         "dummy transcription",
		})
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to credit transcription")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, s.volunteerView(r, user))
}
