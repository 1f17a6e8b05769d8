package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []interface{}
}

func (r *recordingNotifier) Notify(err interface{}, _ ...interface{}) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, err)
	return "id", nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestHoneybadgerMiddleware_DisabledWithoutAPIKey(t *testing.T) {
	t.Setenv("HONEYBADGER_API_KEY", "")
	r := gin.New()
	r.Use(HoneybadgerMiddleware(quietLogger()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNotifyMiddleware_ReportsHandlerError(t *testing.T) {
	n := &recordingNotifier{}
	r := gin.New()
	r.Use(notifyMiddleware(n, quietLogger()))
	runtimeErr := errors.New("Cannot connect to the Docker daemon")
	r.GET("/api/containers", func(c *gin.Context) {
		_ = c.Error(runtimeErr)
		c.JSON(http.StatusBadGateway, gin.H{"error": runtimeErr.Error()})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/containers", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	require.Len(t, n.notices, 1)
	assert.Equal(t, runtimeErr, n.notices[0])
}

func TestNotifyMiddleware_IgnoresClientErrors(t *testing.T) {
	n := &recordingNotifier{}
	r := gin.New()
	r.Use(notifyMiddleware(n, quietLogger()))
	r.GET("/api/containers/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "container not found"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/containers/ghost", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, n.notices)
}

func TestNotifyMiddleware_PanicIsReportedAndRecovered(t *testing.T) {
	n := &recordingNotifier{}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(notifyMiddleware(n, quietLogger()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, n.notices, 1)
	assert.Equal(t, "Panic: GET /boom", n.notices[0])
}
