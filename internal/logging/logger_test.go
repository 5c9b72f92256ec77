package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warn"))
	assert.Equal(t, logrus.InfoLevel, GetLevel("info"))
	assert.Equal(t, logrus.TraceLevel, GetLevel("nonsense"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCombinedWriter(t *testing.T) {
	var a, b bytes.Buffer
	n, err := NewCombinedWriter(&a, failingWriter{}, &b).Write([]byte("hi"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 4, n)
	assert.Equal(t, "hi", a.String())
	assert.Equal(t, "hi", b.String())

	n, err = NewCombinedWriter(&a).Write([]byte("!"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSentryHook(t *testing.T) {
	var captured []*sentry.Event
	hook := NewSentryHook([]logrus.Level{logrus.ErrorLevel})
	hook.capture = func(e *sentry.Event) { captured = append(captured, e) }

	assert.Equal(t, []logrus.Level{logrus.ErrorLevel}, hook.Levels())

	entry := &logrus.Entry{
		Level:   logrus.ErrorLevel,
		Message: "store append failed",
		Time:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Data: logrus.Fields{
			"session":       "s-1",
			logrus.ErrorKey: errors.New("database is locked"),
		},
	}
	require.NoError(t, hook.Fire(entry))

	require.Len(t, captured, 1)
	e := captured[0]
	assert.Equal(t, sentry.LevelError, e.Level)
	assert.Equal(t, "store append failed", e.Message)
	assert.Equal(t, "s-1", e.Extra["session"])
	require.Len(t, e.Exception, 1)
	assert.Equal(t, "database is locked", e.Exception[0].Value)
}
