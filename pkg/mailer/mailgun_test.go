package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailgun_SendMessage(t *testing.T) {
	var gotPath, gotTo, gotSubject, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/") {
			_ = r.ParseMultipartForm(1 << 20)
		} else {
			_ = r.ParseForm()
		}
		gotTo = r.FormValue("to")
		gotSubject = r.FormValue("subject")
		gotText = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<1@mg.example.com>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	m := NewMailgun("mg.example.com", "key-test", "Tours <no-reply@example.com>")
	m.APIBase = srv.URL + "/v3"

	require.NoError(t, m.Send(context.Background(), "a@x.com", "Your password reset token", "reset body"))
	assert.Equal(t, "/v3/mg.example.com/messages", gotPath)
	assert.Equal(t, "a@x.com", gotTo)
	assert.Equal(t, "Your password reset token", gotSubject)
	assert.Equal(t, "reset body", gotText)
}

func TestMailgun_SendMessage_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"forbidden"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewMailgun("mg.example.com", "key-test", "no-reply@example.com")
	m.APIBase = srv.URL + "/v3"

	assert.Error(t, m.Send(context.Background(), "a@x.com", "s", "b"))
}
