package handlers

import (
	"net/http"
	"time"

	"storefront-backend/application/services"
	"storefront-backend/interfaces/http/rest/middleware"
	"storefront-backend/pkg/auth"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"

	"go.uber.org/zap"
)

// AuthHandler serves registration, sessions and the caller's profile
type AuthHandler struct {
	auth          *services.AuthService
	errs          *errors.ErrorHandler
	logger        *zap.Logger
	secureCookies bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *services.AuthService, errs *errors.ErrorHandler, logger *zap.Logger, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: svc, errs: errs, logger: logger, secureCookies: secureCookies}
}

type userResponse struct {
	User interface{} `json:"user"`
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name string, token auth.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token.Token,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) setSession(w http.ResponseWriter, session services.Session) {
	h.setCookie(w, middleware.AccessTokenCookie, session.Access)
	h.setCookie(w, middleware.RefreshTokenCookie, session.Refresh)
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if _, err := h.auth.Register(r.Context(), req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusCreated, "User registered successfully")
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	session, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.setSession(w, session)
	common.RespondJSON(w, http.StatusOK, userResponse{User: session.User})
}

// Refresh handles GET /refreshToken
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		h.errs.Handle(w, r, errors.NewUnauthorizedError("Tokens have been expired"))
		return
	}
	session, err := h.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.setSession(w, session)
	common.RespondMessage(w, http.StatusOK, "Tokens generated successfully")
}

// Logout handles GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			h.errs.Handle(w, r, err)
			return
		}
	}
	h.clearCookie(w, middleware.AccessTokenCookie)
	h.clearCookie(w, middleware.RefreshTokenCookie)
	common.RespondMessage(w, http.StatusOK, "Logged out successfully")
}

// CurrentUser handles GET /users/user and GET /profiles/profile
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	current, err := h.auth.CurrentUser(r.Context(), user.UserID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, userResponse{User: current})
}

// UpdateProfile handles PUT /profiles/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.ProfileInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	updated, err := h.auth.UpdateProfile(r.Context(), user.UserID, req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, userResponse{User: updated})
}
