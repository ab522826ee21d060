package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"theatre/internal/config"
	"theatre/internal/database"
	"theatre/internal/handlers"
	"theatre/internal/metrics"
	"theatre/internal/repository"
	"theatre/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := database.New(sqlx.NewDb(mockDB, "postgres"))
	services := service.NewServices(db, repository.NewRepositories(db), service.Deps{})
	cfg := &config.Config{CORSOrigin: "https://theatre.example"}

	return NewRouter(handlers.NewHandlers(services, nil), cfg, metrics.NewWithRegistry(prometheus.NewRegistry())), mock
}

func TestRouterWiresRoutes(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery("FROM tickets").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"row", "col"}).AddRow(2, 7))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/sessions/4/occupied", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessionId": 4, "seats": [{"row": 2, "col": 7}]}`, w.Body.String())
	assert.Equal(t, "https://theatre.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouterStatsWithoutRedis(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/sessions/4/stats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"ok": false, "error": "Service temporarily unavailable"}`, w.Body.String())
}

func TestRouterAdminDisabledByDefault(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouterExposesMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
