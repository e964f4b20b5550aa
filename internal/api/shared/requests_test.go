package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=todo in_progress review done"`
}

type customRequest struct {
	err error
}

func (c customRequest) Validate() error { return c.err }

func newRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var req statusRequest
	require.NoError(t, DecodeJSON(newRequest(`{"status":"review"}`), &req))
	assert.Equal(t, "review", req.Status)
}

func TestDecodeJSON_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"malformed", `{"status":`},
		{"unknown field", `{"status":"todo","priority":1}`},
		{"oversized", `{"status":"` + strings.Repeat("a", MaxRequestBodyBytes) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var req statusRequest
			assert.Error(t, DecodeJSON(newRequest(tt.body), &req))
		})
	}
}

func TestReadBody_Empty(t *testing.T) {
	t.Parallel()

	_, err := ReadBody(newRequest(""))
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRequest(&statusRequest{Status: "done"}))

	err := ValidateRequest(&statusRequest{Status: "archived"})
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	assert.Equal(t, "oneof", validationErrs[0].Tag())

	assert.Error(t, ValidateRequest(&statusRequest{}))
}

func TestValidateRequest_CustomValidator(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRequest(customRequest{}))
	assert.ErrorIs(t, ValidateRequest(customRequest{err: ErrEmptyBody}), ErrEmptyBody)
}
