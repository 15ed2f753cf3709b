package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/internal/application"
	"github.com/oksasatya/tourguide-auth/internal/interface/httperr"
	"github.com/oksasatya/tourguide-auth/internal/interface/middleware"
	"github.com/oksasatya/tourguide-auth/pkg/response"
	"github.com/oksasatya/tourguide-auth/pkg/validation"
)

type AuthHandler struct {
	Auth   *application.AuthService
	Logger *logrus.Logger
	// ResetURL is the base of the mailed reset link. Empty means derive it from the request.
	ResetURL string
}

func NewAuthHandler(auth *application.AuthService, logger *logrus.Logger, resetURL string) *AuthHandler {
	return &AuthHandler{Auth: auth, Logger: logger, ResetURL: resetURL}
}

type userPayload struct {
	User any `json:"user"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var in application.SignupInput
	if !bindJSON(c, h.Logger, &in) {
		return
	}
	res, err := h.Auth.Signup(c.Request.Context(), in)
	if err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	response.WithToken(c, http.StatusCreated, res.Token, userPayload{User: res.User})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in application.LoginInput
	if !bindJSON(c, h.Logger, &in) {
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), in)
	if err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	response.WithToken(c, http.StatusOK, res.Token, userPayload{User: res.User})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var in application.ForgotPasswordInput
	if !bindJSON(c, h.Logger, &in) {
		return
	}
	in.ResetURLBase = h.resetURLBase(c)
	in.RequestIP = c.GetString(middleware.CtxRealIPKey)

	if err := h.Auth.ForgotPassword(c.Request.Context(), in); err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Token sent to email!")
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var in application.ResetPasswordInput
	if !bindJSON(c, h.Logger, &in) {
		return
	}
	res, err := h.Auth.ResetPassword(c.Request.Context(), c.Param("resetToken"), in)
	if err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	response.WithToken(c, http.StatusOK, res.Token, userPayload{User: res.User})
}

// UpdatePassword requires Protect upstream.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	me, ok := middleware.CurrentUser(c)
	if !ok {
		httperr.Write(c, h.Logger, application.ErrUnauthenticated)
		return
	}
	var in application.ChangePasswordInput
	if !bindJSON(c, h.Logger, &in) {
		return
	}
	res, err := h.Auth.ChangePassword(c.Request.Context(), me.ID, in)
	if err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	response.WithToken(c, http.StatusOK, res.Token, userPayload{User: res.User})
}

func (h *AuthHandler) resetURLBase(c *gin.Context) string {
	if h.ResetURL != "" {
		return h.ResetURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(p, ",")[0]))
	}
	return scheme + "://" + c.Request.Host + "/api/v1/users/resetPassword"
}

// bindJSON decodes the body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, logger *logrus.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httperr.Write(c, logger, &application.ValidationError{Fields: validation.ToDetails(err)})
		return false
	}
	return true
}
