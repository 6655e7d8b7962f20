package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClaims struct {
	subject string
}

func (c *stubClaims) GetSubject() string { return c.subject }

type stubValidator struct {
	subject string
	err     error
}

func (v *stubValidator) ValidateToken(tokenString string) (SubjectGetter, error) {
	if v.err != nil {
		return nil, v.err
	}
	return &stubClaims{subject: v.subject}, nil
}

func protectedHandler(t *testing.T, wantSubject string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := GetSubject(r)
		require.NoError(t, err)
		assert.Equal(t, wantSubject, subject)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	mw := AuthMiddleware(&stubValidator{subject: "cli-client"})
	handler := mw(protectedHandler(t, "cli-client"))

	req := httptest.NewRequest("GET", "/api/workflows", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_CaseInsensitiveBearer(t *testing.T) {
	mw := AuthMiddleware(&stubValidator{subject: "cli-client"})
	handler := mw(protectedHandler(t, "cli-client"))

	req := httptest.NewRequest("GET", "/api/workflows", nil)
	req.Header.Set("Authorization", "bearer some-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		validator *stubValidator
	}{
		{name: "missing header", header: "", validator: &stubValidator{}},
		{name: "not bearer", header: "Basic abc123", validator: &stubValidator{}},
		{name: "bearer without token", header: "Bearer", validator: &stubValidator{}},
		{name: "invalid token", header: "Bearer bad", validator: &stubValidator{err: fmt.Errorf("expired")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := AuthMiddleware(tt.validator)
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be reached")
			}))

			req := httptest.NewRequest("GET", "/api/workflows", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestGetSubject_MissingFromContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/workflows", nil)
	_, err := GetSubject(req)
	assert.Error(t, err)
}
