// Package log is the application's action log: one JSON line per notable
// event, tagged with request context when a fiber context is available.
package log

import (
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})
	base.SetOutput(os.Stdout)
}

// Setup optionally tees the log to a file in addition to stdout.
func Setup(logFile string) error {
	if logFile == "" {
		return nil
	}
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	base.SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}

func entry(c *fiber.Ctx, action string, fields map[string]any) *logrus.Entry {
	e := base.WithField("action", action)
	if c != nil {
		e = e.WithFields(logrus.Fields{
			"ip":     c.IP(),
			"method": c.Method(),
			"path":   c.Path(),
			"status": c.Response().StatusCode(),
		})
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e = e.WithField("req_id", rid)
		}
	}
	for k, v := range fields {
		e = e.WithField(k, v)
	}
	return e
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, action, fields).Info(action)
}

// Audit marks state-changing business events (orders placed, refunds issued).
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, action, fields).WithField("audit", true).Info(action)
}

// Security marks denied access, validation failures and other suspicious input.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, action, fields).Warn(action)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	e := entry(c, action, fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(action)
}
