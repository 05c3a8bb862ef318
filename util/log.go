package util

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Severity levels for audit messages
type Severity string

// Recognized severities
const (
	DEBUG   Severity = "debug"
	INFO    Severity = "info"
	WARNING Severity = "warning"
	ERROR   Severity = "error"
)

// LogContext is the information every log line is tagged with
type LogContext interface {
	AppName() string
	SessionID() string
	LogRootDir() string
}

// AppName is the name used when a context does not supply its own
const AppName = "floodmap"

// BasicLogContext is a LogContext with a lazily created session ID
type BasicLogContext struct {
	sessionID string
}

// AppName returns the application name
func (c *BasicLogContext) AppName() string {
	return AppName
}

// SessionID returns a Session ID, creating one if needed
func (c *BasicLogContext) SessionID() string {
	if c.sessionID == "" {
		c.sessionID, _ = PsuUUID()
	}
	return c.sessionID
}

// LogRootDir returns an empty string
func (c *BasicLogContext) LogRootDir() string {
	return ""
}

// PsuUUID returns a new random UUID string
func PsuUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var (
	loggerMu sync.RWMutex
	logger   = newLogger(os.Stderr, os.Getenv(LOG_LEVEL))
)

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// SetLogOutput redirects all logging to w at the given level ("debug", "info", ...)
func SetLogOutput(w io.Writer, level string) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = newLogger(w, level)
}

func contextLogger(ctx LogContext) zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if ctx == nil {
		return logger
	}
	return logger.With().Str("app", ctx.AppName()).Str("session", ctx.SessionID()).Logger()
}

// LogInfo posts an informational message
func LogInfo(ctx LogContext, message string) {
	l := contextLogger(ctx)
	l.Info().Msg(message)
}

// LogAlert posts a warning that requires attention but did not fail the operation
func LogAlert(ctx LogContext, message string) {
	l := contextLogger(ctx)
	l.Warn().Msg(message)
}

// LogSimpleErr logs the message along with err and returns an error carrying
// the message, suitable to hand back to the caller
func LogSimpleErr(ctx LogContext, message string, err error) error {
	l := contextLogger(ctx)
	l.Error().Err(err).Msg(message)
	return &Error{SimpleMsg: message, LogMsg: errString(err), cause: err}
}

// LogAuditInput describes one auditable action
type LogAuditInput struct {
	Actor    string
	Action   string
	Actee    string
	Message  string
	Severity Severity
}

// LogAudit records who did what to whom
func LogAudit(ctx LogContext, input LogAuditInput) {
	l := contextLogger(ctx)
	var event *zerolog.Event
	switch input.Severity {
	case DEBUG:
		event = l.Debug()
	case WARNING:
		event = l.Warn()
	case ERROR:
		event = l.Error()
	default:
		event = l.Info()
	}
	event.Bool("audit", true).
		Str("actor", input.Actor).
		Str("action", input.Action).
		Str("actee", input.Actee).
		Msg(input.Message)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
