package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/common"
	"github.com/dmitrijs2005/chatbook/internal/server/models"
	"github.com/dmitrijs2005/chatbook/internal/server/services"
	"github.com/samber/lo"
)

type userItem struct {
	Username string `json:"username"`
}

type historyItem struct {
	ID        int64                `json:"id"`
	From      string               `json:"from"`
	To        string               `json:"to"`
	Content   string               `json:"content"`
	Status    models.MessageStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to ChatBook backend!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sessions": s.registry.Len()})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var c services.Credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := s.users.Register(r.Context(), c); err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			writeDetail(w, http.StatusBadRequest, "Username already registered")
		case errors.Is(err, common.ErrValidation):
			writeDetail(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error(r.Context(), "register failed", "error", err)
			writeDetail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, msgResponse{Msg: "User registered successfully"})
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form")
		return
	}
	s.login(w, r, services.Credentials{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	})
}

func (s *Server) handleLoginJSON(w http.ResponseWriter, r *http.Request) {
	var c services.Credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.login(w, r, c)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, c services.Credentials) {
	if c.Username == "" || c.Password == "" {
		writeDetail(w, http.StatusBadRequest, "username and password required")
		return
	}
	pair, err := s.users.Login(r.Context(), c)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// refreshTokenFrom reads refresh_token from the query string, falling back
// to a JSON body.
func refreshTokenFrom(r *http.Request) string {
	if t := r.URL.Query().Get("refresh_token"); t != "" {
		return t
	}
	var body refreshRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	return body.RefreshToken
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFrom(r)
	if token == "" {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	pair, err := s.users.RefreshToken(r.Context(), token)
	if err != nil {
		status := statusFor(err)
		switch {
		case status == http.StatusInternalServerError:
			s.logger.Error(r.Context(), "refresh failed", "error", err)
			writeDetail(w, status, "internal error")
		case errors.Is(err, common.ErrorUnauthorized):
			writeDetail(w, http.StatusUnauthorized, "User not found")
		default:
			writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		}
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Logout(r.Context(), refreshTokenFrom(r)); err != nil {
		s.logger.Error(r.Context(), "logout failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, msgResponse{Msg: "Logout successful. Please delete your tokens on the client."})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "list users failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(users, func(u *models.User, _ int) userItem {
		return userItem{Username: u.UserName}
	}))
}

// handleMessages returns [] when either user is unknown.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user1, user2 := q.Get("user1"), q.Get("user2")
	if user1 == "" || user2 == "" {
		writeDetail(w, http.StatusBadRequest, "user1 and user2 required")
		return
	}

	msgs, err := s.messages.History(r.Context(), user1, user2)
	if err != nil {
		s.logger.Error(r.Context(), "history failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(msgs, func(m *models.Message, _ int) historyItem {
		return historyItem{
			ID:        m.ID,
			From:      m.Sender,
			To:        m.Receiver,
			Content:   m.Content,
			Status:    m.Status,
			Timestamp: m.Timestamp.UTC(),
		}
	}))
}
