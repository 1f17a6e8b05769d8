package middleware

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
	"github.com/sirupsen/logrus"
)

// Notifier is the subset of the honeybadger client used by the middleware.
type Notifier interface {
	Notify(err interface{}, extra ...interface{}) (string, error)
}

type honeybadgerNotifier struct{}

func (honeybadgerNotifier) Notify(err interface{}, extra ...interface{}) (string, error) {
	return honeybadger.Notify(err, extra...)
}

// HoneybadgerMiddleware reports panics, 5xx responses and handler errors to
// Honeybadger. It is a pass-through unless HONEYBADGER_API_KEY is set.
func HoneybadgerMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	apiKey := os.Getenv("HONEYBADGER_API_KEY")
	if apiKey == "" {
		logger.Info("Honeybadger is not active. To enable error reporting, set the HONEYBADGER_API_KEY environment variable.")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	honeybadger.Configure(honeybadger.Configuration{
		APIKey: apiKey,
		Env:    os.Getenv("GO_ENV"),
	})
	logger.Info("Honeybadger error reporting is enabled.")
	return notifyMiddleware(honeybadgerNotifier{}, logger)
}

// notifyMiddleware re-panics after notifying so gin.Recovery still writes the response.
func notifyMiddleware(n Notifier, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				_, _ = n.Notify(fmt.Sprintf("Panic: %s %s", c.Request.Method, c.Request.URL.Path),
					c.Request, honeybadger.Context{"stack": string(debug.Stack())}, honeybadger.Tags{"panic", "http"})
				logger.Error("Recovered from panic, notified Honeybadger: ", rec)
				panic(rec)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if status < 500 {
			return
		}
		// controllers attach the runtime error so the report carries stderr, not just the status
		if err := c.Errors.Last(); err != nil {
			_, _ = n.Notify(err.Err, c.Request, honeybadger.Context{"status": status}, honeybadger.Tags{"5XX", "runtime"})
		} else {
			_, _ = n.Notify(fmt.Sprintf("Error: HTTP %d: %s %s", status, c.Request.Method, c.Request.URL.Path), c.Request, honeybadger.Tags{"5XX", "http"})
		}
		logger.Warnf("Honeybadger reported HTTP %d for %s %s", status, c.Request.Method, c.Request.URL.Path)
	}
}
