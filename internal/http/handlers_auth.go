package http

import (
	"errors"
	"net/http"

	"spendlog/internal/log"
	"spendlog/internal/services"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadBody.Error())
		return
	}

	u, err := s.users.Register(r.Context(), req.Username, req.Password)
	var ve *services.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, userResponse{ID: u.ID, Username: u.Username})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Details: ve.Details})
	case errors.Is(err, services.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username already taken")
	default:
		s.internalError(w, r, "Registration failed", err, log.OpRegister)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadBody.Error())
		return
	}

	u, err := s.users.Login(r.Context(), req.Username, req.Password)
	var ve *services.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Username: u.Username})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Details: ve.Details})
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
	default:
		s.internalError(w, r, "Login failed", err, log.OpLogin)
	}
}

// internalError logs err with the request-scoped logger and hides it from
// the client.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	s.internalErrorWith(w, r, msg, err, op, nil)
}

func (s *Server) internalErrorWith(w http.ResponseWriter, r *http.Request, msg string, err error, op string, fields log.LogFields) {
	logger := log.FromContext(r.Context())
	log.NewStructuredLogger(logger).LogError(r.Context(), msg, err, logger.Component(), op, fields)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
