package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_store/internal/domain"
	"github.com/fjod/go_store/internal/logger"
	"github.com/fjod/go_store/internal/service"
	"github.com/fjod/go_store/internal/session"
	"go.uber.org/zap"
)

// AuthHandler serves both JSON clients and the HTML forms of the views.
// Form submissions are answered with redirects instead of JSON.
type AuthHandler struct {
	users    UserService
	sessions session.Store
	timeout  time.Duration
	log      *zap.SugaredLogger
}

func NewAuthHandler(users UserService, sessions session.Store, timeout time.Duration, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		timeout:  timeout,
		log:      log,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	User *domain.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	form := isForm(r)
	var reg service.Registration
	if form {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, "/register", "invalid form")
			return
		}
		age, _ := strconv.Atoi(r.PostForm.Get("age"))
		reg = service.Registration{
			Name:     r.PostForm.Get("name"),
			LastName: r.PostForm.Get("last_name"),
			Email:    r.PostForm.Get("email"),
			Password: r.PostForm.Get("password"),
			Age:      age,
			Role:     r.PostForm.Get("typeofuser"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.users.Register(ctx, reg)
	if err != nil {
		if form {
			redirectWithError(w, r, "/register", err.Error())
			return
		}
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	if form {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	respondJSON(w, http.StatusCreated, SessionResponse{User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	form := isForm(r)
	var req LoginRequestDTO
	if form {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, "/login", "invalid form")
			return
		}
		req = LoginRequestDTO{Email: r.PostForm.Get("email"), Password: r.PostForm.Get("password")}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if form {
			redirectWithError(w, r, "/login", err.Error())
			return
		}
		handleServiceError(w, logger.WithContext(r.Context(), h.log), err)
		return
	}

	sess, err := h.sessions.Create(ctx, user)
	if err != nil {
		logger.WithContext(r.Context(), h.log).Errorw("failed to create session", "user_id", user.ID, "error", err)
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "service unavailable")
		return
	}
	setSessionCookie(w, sess.Token)

	if form {
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return
	}
	respondJSON(w, http.StatusOK, SessionResponse{User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(ctx, cookie.Value); err != nil {
			logger.WithContext(r.Context(), h.log).Warnw("failed to delete session", "error", err)
		}
	}
	clearSessionCookie(w)

	if isForm(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}

func redirectWithError(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(message), http.StatusSeeOther)
}
