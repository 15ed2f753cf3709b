package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/tourguide-auth/internal/application"
	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authFunc func(ctx context.Context, token string) (*entity.User, error)

func (f authFunc) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	return f(ctx, token)
}

var ann = &entity.User{ID: "u1", Name: "Ann", Email: "a@x.com", Role: entity.RoleUser}

func acceptOnly(valid string, u *entity.User) authFunc {
	return func(ctx context.Context, token string) (*entity.User, error) {
		if token != valid {
			return nil, fmt.Errorf("%w: token is malformed", application.ErrUnauthenticated)
		}
		return u, nil
	}
}

func protectedEngine(auth Authenticator, handlerRan *bool) *gin.Engine {
	r := gin.New()
	r.GET("/me", Protect(auth, nil), func(c *gin.Context) {
		*handlerRan = true
		u, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		fromCtx, ok := application.UserFromContext(c.Request.Context())
		if !ok || fromCtx.ID != u.ID {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": u.Email, "userID": c.GetString(CtxUserIDKey)})
	})
	return r
}

func TestProtect(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantRan    bool
	}{
		{"valid bearer", "Bearer good", http.StatusOK, true},
		{"scheme is case insensitive", "bearer good", http.StatusOK, true},
		{"missing header", "", http.StatusUnauthorized, false},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, false},
		{"no token", "Bearer ", http.StatusUnauthorized, false},
		{"bare token", "good", http.StatusUnauthorized, false},
		{"rejected token", "Bearer forged", http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			r := protectedEngine(acceptOnly("good", ann), &ran)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantRan, ran)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantRan {
				assert.Equal(t, "a@x.com", body["email"])
				assert.Equal(t, "u1", body["userID"])
			} else {
				assert.Equal(t, "fail", body["status"])
				assert.Equal(t, application.ErrUnauthenticated.Error(), body["message"])
			}
		})
	}
}

func TestProtect_PersistenceFailureIsServerError(t *testing.T) {
	ran := false
	failing := authFunc(func(ctx context.Context, token string) (*entity.User, error) {
		return nil, fmt.Errorf("%w: pool closed", application.ErrPersistence)
	})
	r := protectedEngine(failing, &ran)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, ran)
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("  Bearer   abc.def.ghi ")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", tok)

	_, ok = bearerToken("Bearer")
	assert.False(t, ok)
}
