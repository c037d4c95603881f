package v1

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meddist/internal-api/internal/api/handler/v1/response"
	"github.com/meddist/internal-api/internal/api/middleware"
	"github.com/meddist/internal-api/internal/config"
	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/pkg/jwthelper"
)

var testIssuer = jwthelper.NewIssuer(&config.JWTConfig{
	AccessSecret:  "test-access",
	RefreshSecret: "test-refresh",
	AccessTTL:     time.Hour,
	RefreshTTL:    time.Hour,
})

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter returns an engine whose routes all require a valid access token.
func newTestRouter() (*gin.Engine, *gin.RouterGroup) {
	r := gin.New()
	return r, r.Group("", middleware.NewAuthenticator(testIssuer).VerifyJWT())
}

func bearer(t *testing.T, id uuid.UUID, roles ...string) string {
	t.Helper()

	token, err := testIssuer.IssueAccess(domain.User{ID: id, Email: "t@meddist.com", Roles: roles})
	require.NoError(t, err)

	return "Bearer " + token
}

func doJSON(r http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) response.Err {
	t.Helper()

	var e response.Err
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))

	return e
}
