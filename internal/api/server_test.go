package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	v1 "github.com/meddist/internal-api/internal/api/handler/v1"
	"github.com/meddist/internal-api/internal/config"
	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/pkg/events"
	"github.com/meddist/internal-api/internal/pkg/jwthelper"
	"github.com/meddist/internal-api/internal/pkg/lock"
	"github.com/meddist/internal-api/internal/repository/dao"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		API: &config.APIConfig{
			Port:               "3003",
			BaseURL:            "localhost:3003",
			AllowedCORSDomains: []string{"http://localhost:3000"},
		},
		Gin:       &config.GinConfig{Mode: gin.TestMode},
		JWT:       &config.JWTConfig{AccessSecret: "a", RefreshSecret: "r", AccessTTL: time.Hour, RefreshTTL: time.Hour},
		RateLimit: &config.RateLimitConfig{},
		Telemetry: &config.TelemetryConfig{},
		Inventory: &config.InventoryConfig{MaxRetries: 3},
	}
}

func newTestServer(t *testing.T) (*Server, *jwthelper.Issuer) {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, dao.InitTables(db))

	conf := testConfig()
	s, err := NewServer(conf, db, Dependencies{
		Locker:    lock.NopLocker{},
		Publisher: events.LogPublisher{},
		Hub:       v1.NewInventoryHub(nil),
	})
	require.NoError(t, err)

	return s, jwthelper.NewIssuer(conf.JWT)
}

func call(t *testing.T, s *Server, issuer *jwthelper.Issuer, method, path string, body any, roles ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	token, err := issuer.IssueAccess(domain.User{ID: uuid.New(), Email: "t@meddist.com", Roles: roles})
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	return w
}

func TestServer_ChannelRoles(t *testing.T) {
	s, issuer := newTestServer(t)
	body := map[string]string{"name": "Farmácias"}

	tests := []struct {
		name   string
		method string
		body   any
		roles  []string
		want   int
	}{
		{name: "viewer cannot create", method: http.MethodPost, body: body, roles: []string{domain.RoleChannelsViewer}, want: http.StatusForbidden},
		{name: "other manager cannot create", method: http.MethodPost, body: body, roles: []string{domain.RoleInventoryManager}, want: http.StatusForbidden},
		{name: "manager creates", method: http.MethodPost, body: body, roles: []string{domain.RoleChannelsManager}, want: http.StatusCreated},
		{name: "admin creates", method: http.MethodPost, body: map[string]string{"name": "Hospitais"}, roles: []string{domain.RoleAdmin}, want: http.StatusCreated},
		{name: "viewer lists", method: http.MethodGet, roles: []string{domain.RoleChannelsViewer}, want: http.StatusOK},
		{name: "plain user cannot list", method: http.MethodGet, roles: []string{domain.RoleUser}, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(t, s, issuer, tt.method, basePath+"/channels", tt.body, tt.roles...)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	s, issuer := newTestServer(t)

	w := call(t, s, issuer, http.MethodGet, "/api/v2/nothing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Cannot GET /api/v2/nothing")
}
