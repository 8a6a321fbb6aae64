package echoapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/examprep/core"
)

func Test_appHTTPErrorHandler(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	type form struct {
		Email string `json:"email" validate:"required"`
	}
	vErr := validate.Struct(form{})
	require.Error(t, vErr)

	tests := []struct {
		name         string
		method       string
		debug        bool
		err          error
		wantCode     int
		wantBody     map[string]string
		wantShutdown bool
	}{
		{
			name:     "http error",
			err:      errHttpForbidden,
			wantCode: http.StatusForbidden,
			wantBody: map[string]string{"error": "permission denied"},
		},
		{
			name:     "wrapped http error",
			err:      echo.NewHTTPError(http.StatusUnauthorized).SetInternal(errSessionExpired),
			wantCode: http.StatusUnauthorized,
			wantBody: map[string]string{"error": "session expired"},
		},
		{
			name:     "missing jwt",
			err:      middleware.ErrJWTMissing,
			wantCode: http.StatusUnauthorized,
			wantBody: map[string]string{"error": "missing or malformed jwt"},
		},
		{
			name:     "validation errors",
			err:      errors.Wrap(vErr, "validating form"),
			wantCode: http.StatusBadRequest,
			wantBody: map[string]string{"email": "this field is required"},
		},
		{
			name:     "field errors",
			err:      core.NewValidationError(errors.New("taken"), core.FieldError{Field: "email", Error: "taken"}),
			wantCode: http.StatusBadRequest,
			wantBody: map[string]string{"email": "taken"},
		},
		{
			name:     "validation error",
			err:      core.NewValidationError(errors.New("invalid token")),
			wantCode: http.StatusBadRequest,
			wantBody: map[string]string{"error": "invalid token"},
		},
		{
			name:     "server error",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantBody: map[string]string{"error": "Internal Server Error"},
		},
		{
			name:     "server error in debug",
			debug:    true,
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantBody: map[string]string{"error": "boom"},
		},
		{
			name:         "shutdown",
			err:          errors.Wrap(core.NewShutdownError("integrity issue"), "provisioning"),
			wantCode:     http.StatusInternalServerError,
			wantBody:     map[string]string{"error": "Internal Server Error"},
			wantShutdown: true,
		},
		{
			name:     "head",
			method:   http.MethodHead,
			err:      errHttpNotFound,
			wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var shutdown bool
			handler := newAppHTTPErrorHandler(core.NopLogger{}, translator, func() { shutdown = true })

			e := echo.New()
			e.Debug = tt.debug
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := httptest.NewRecorder()
			handler(tt.err, e.NewContext(httptest.NewRequest(method, "/", nil), rec))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantShutdown, shutdown)
			if tt.wantBody == nil {
				assert.Empty(t, rec.Body.String())
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
