package scraper

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/jobscout/models"
)

type closerStub struct {
	closed int
	err    error
}

func (c *closerStub) Close() error {
	c.closed++
	return c.err
}

func TestLogResponse(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logResponse(log, 200, "https://www.linkedin.com/jobs/search")
	assert.Empty(t, buf.String())

	logResponse(log, 404, "https://www.linkedin.com/missing")
	assert.Empty(t, buf.String(), "plain failures stay at debug")

	logResponse(log, 429, "https://www.linkedin.com/voyager/api/jobs")
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "too many requests")
	assert.Contains(t, out, "status=429")
	assert.Contains(t, out, "url=https://www.linkedin.com/voyager/api/jobs")
}

func TestLogResponse_DebugFailures(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logResponse(log, 503, "https://www.linkedin.com/jobs/view/1")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "status=503")
}

func TestRodBrowserClose_RemoteDropsConnection(t *testing.T) {
	conn := &closerStub{}
	b := &rodBrowser{remote: true, conn: conn}

	require.NoError(t, b.Close())
	assert.Equal(t, 1, conn.closed)
}

func TestRodBrowserClose_RemoteDisconnectError(t *testing.T) {
	b := &rodBrowser{remote: true, conn: &closerStub{err: errors.New("broken pipe")}}

	err := b.Close()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.ErrCodeBrowserCrash))
}
