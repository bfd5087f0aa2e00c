package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/enertrack-console/internal/errors"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type revokeRequest struct {
	Token   string `json:"token"`
	Refresh string `json:"refresh,omitempty"`
}

// LoginHandler exchanges credentials for an access/refresh pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		pair, err := s.issuer.Login(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, errors.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "No active account found with the given credentials")
				return
			}
			log.Err(err).Str("username", req.Username).Msg("login failed")
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}

		log.Info().Str("username", req.Username).Msg("user logged in")
		writeJSON(w, http.StatusOK, pair)
	}
}

// RefreshHandler exchanges a refresh token for a new access token.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Refresh) == "" {
			writeError(w, http.StatusBadRequest, "refresh is required")
			return
		}

		pair, err := s.issuer.Refresh(req.Refresh)
		if err != nil {
			if errors.Is(err, errors.ErrInvalidRefreshToken) || errors.Is(err, errors.ErrRefreshTokenExpired) {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"detail": "Token is invalid or expired",
					"code":   "token_not_valid",
				})
				return
			}
			log.Err(err).Msg("refresh failed")
			writeError(w, http.StatusInternalServerError, "refresh failed")
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// RevokeHandler blacklists an access token, and optionally a refresh token,
// so clients can be tested against server-side invalidation.
func (s *Server) RevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req revokeRequest
		if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Token) == "" {
			writeError(w, http.StatusBadRequest, "token is required")
			return
		}
		if err := s.issuer.Revoke(req.Token); err != nil {
			writeError(w, http.StatusBadRequest, "token is not valid")
			return
		}
		if req.Refresh != "" {
			s.issuer.RevokeRefreshToken(req.Refresh)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
