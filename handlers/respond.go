package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/nikhilsahni7/StandupX/auth"
	"github.com/nikhilsahni7/StandupX/db"
	"github.com/nikhilsahni7/StandupX/ordering"
	"github.com/nikhilsahni7/StandupX/question"
	"github.com/nikhilsahni7/StandupX/response"
	"go.uber.org/zap"
)

var (
	errPermission = errors.New("not enough permissions")
	errBadRequest = errors.New("bad request")
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"detail": msg})
}

// badRequest wraps a client input problem so writeServiceError maps it to 400.
func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// writeServiceError maps domain errors onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *response.ValidationError
		config     question.ConfigErrors
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": "invalid response",
			"errors": validation.Fields,
		})
	case errors.As(err, &config):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": "invalid question",
			"errors": config,
		})
	case errors.Is(err, errBadRequest),
		errors.Is(err, ordering.ErrIncompleteList),
		errors.Is(err, response.ErrTeamMismatch),
		errors.Is(err, question.ErrUnknownType),
		errors.Is(err, response.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errPermission),
		errors.Is(err, response.ErrNotTeamMember):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, db.ErrNotFound),
		errors.Is(err, ordering.ErrNotFound),
		errors.Is(err, response.ErrNoDraft):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ordering.ErrDuplicateAttachment),
		errors.Is(err, response.ErrAlreadySubmitted),
		errors.Is(err, response.ErrCeremonyInactive),
		errors.Is(err, response.ErrOrphanedQuestion),
		errors.Is(err, db.ErrEmailTaken),
		errors.Is(err, response.ErrResponseLocked),
		errors.Is(err, db.ErrAlreadyMember),
		errors.Is(err, db.ErrAlreadyManager),
		errors.Is(err, db.ErrTeamInUse),
		errors.Is(err, db.ErrQuestionInUse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// pathID parses a numeric mux route variable.
func pathID(r *http.Request, name string) (uint, error) {
	id, err := parseUint(mux.Vars(r)[name])
	if err != nil {
		return 0, badRequest("invalid %s", name)
	}
	return id, nil
}

func parseUint(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, badRequest("id must be positive")
	}
	return uint(id), nil
}

func currentUserID(r *http.Request) uint {
	id, _ := auth.UserID(r.Context())
	return id
}
