package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/internal/application"
	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
	repo "github.com/oksasatya/tourguide-auth/internal/domain/repository"
	"github.com/oksasatya/tourguide-auth/internal/interface/httperr"
	"github.com/oksasatya/tourguide-auth/internal/interface/middleware"
	"github.com/oksasatya/tourguide-auth/pkg/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = 1_000_000
	maxPhotoBytes   = 5 << 20
)

// UserHandler serves profile self-service and admin user management. Every route sits behind Protect.
type UserHandler struct {
	Users  *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(users *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Users: users, Logger: logger}
}

func (h *UserHandler) Me(c *gin.Context) {
	me, ok := h.currentUser(c)
	if !ok {
		return
	}
	u, err := h.Users.GetMe(c.Request.Context(), me.ID)
	if err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, userPayload{User: u}, "")
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	me, ok := h.currentUser(c)
	if !ok {
		return
	}
	var in application.UpdateMeInput
	if !bindJSON(c, h.Logger, &in) {
		return
	}
	u, err := h.Users.UpdateMe(c.Request.Context(), me.ID, in)
	if err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, userPayload{User: u}, "")
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	me, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.Users.DeleteMe(c.Request.Context(), me.ID); err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPhoto expects a multipart form with the image in the "photo" field.
func (h *UserHandler) UploadPhoto(c *gin.Context) {
	me, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)
	fh, err := c.FormFile("photo")
	if err != nil {
		httperr.Write(c, h.Logger, &application.ValidationError{Fields: map[string]string{"photo": "is required"}})
		return
	}
	f, err := fh.Open()
	if err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	defer f.Close()

	u, err := h.Users.UploadPhoto(c.Request.Context(), me.ID, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, userPayload{User: u}, "")
}

// List pages through users, or searches them when q is set.
func (h *UserHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := queryInt(c, "page", 1)

	ctx := c.Request.Context()
	var (
		users []*entity.User
		err   error
	)
	if q := c.Query("q"); q != "" {
		users, err = h.Users.SearchUsers(ctx, q, limit)
	} else {
		users, err = h.Users.ListUsers(ctx, repo.ListOptions{Limit: limit, Offset: pageOffset(page, limit)})
	}
	if err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	response.List(c, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, userPayload{User: u}, "")
}

func (h *UserHandler) Update(c *gin.Context) {
	var in application.UpdateUserInput
	if !bindJSON(c, h.Logger, &in) {
		return
	}
	u, err := h.Users.UpdateUser(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, userPayload{User: u}, "")
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Users.DeactivateUser(c.Request.Context(), c.Param("id")); err != nil {
		httperr.Write(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) currentUser(c *gin.Context) (*entity.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		httperr.Write(c, h.Logger, application.ErrUnauthenticated)
	}
	return u, ok
}

// queryInt reads a positive integer query parameter, falling back to def.
// pageOffset converts a 1-based page into a row offset. Pages past maxPage are clamped so the
// multiplication cannot overflow into a negative offset.
func pageOffset(page, limit int) int {
	page = min(max(page, 1), maxPage)
	return (page - 1) * limit
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}
