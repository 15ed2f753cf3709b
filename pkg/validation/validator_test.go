package validation

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupDTO struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=admin user"`
}

func TestToDetails_ValidatorErrors(t *testing.T) {
	v := New()

	err := v.Struct(signupDTO{Email: "nope", Password: "short", PasswordConfirm: "other", Role: "root"})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 8 characters and at most 72 bytes", details["password"])
	assert.Equal(t, "must match Password", details["passwordConfirm"])
	assert.Equal(t, "must be one of: admin, user", details["role"])
}

func TestToDetails_Required(t *testing.T) {
	err := New().Struct(signupDTO{})
	details := ToDetails(err)
	assert.Equal(t, "is required", details["email"])
	assert.Equal(t, "is required", details["password"])
}

func TestToDetails_Payload(t *testing.T) {
	assert.Nil(t, ToDetails(nil))

	var syntax *json.SyntaxError
	err := json.Unmarshal([]byte("{"), &struct{}{})
	require.ErrorAs(t, err, &syntax)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	assert.Equal(t, map[string]string{"payload": "request body is empty"}, ToDetails(io.EOF))
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("boom")))
}

func TestPasswordRule_CountsBytesAgainstBcryptLimit(t *testing.T) {
	v := New()
	check := func(pwd string) error {
		return v.Struct(signupDTO{Email: "a@x.com", Password: pwd, PasswordConfirm: pwd})
	}

	assert.NoError(t, check(strings.Repeat("a", 72)))
	assert.NoError(t, check(strings.Repeat("é", 8)), "eight two-byte characters meet the minimum")
	assert.NoError(t, check(strings.Repeat("é", 36)))

	for _, pwd := range []string{strings.Repeat("a", 73), strings.Repeat("é", 37), strings.Repeat("é", 72), "seven77"} {
		err := check(pwd)
		require.Error(t, err, "%d bytes", len(pwd))
		assert.Contains(t, ToDetails(err), "password")
	}
}
