package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) ComponentHealth { return ComponentHealth{Status: StatusUp} }

func TestRunAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("index", up)
	assert.Equal(t, StatusUp, c.Run(context.Background()).Status)

	c.Register("cache", Ping(func(context.Context) error { return errors.New("refused") }, StatusDegraded, ""))
	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "refused", report.Components["cache"].Message)
	assert.NotEmpty(t, report.Components["index"].Latency)

	c.Register("database", Ping(func(context.Context) error { return errors.New("gone") }, StatusDown, ""))
	assert.Equal(t, StatusDown, c.Run(context.Background()).Status)
}

func TestPingSuccessDetail(t *testing.T) {
	got := Ping(func(context.Context) error { return nil }, StatusDown, "sqlite")(context.Background())
	assert.Equal(t, ComponentHealth{Status: StatusUp, Message: "sqlite"}, got)
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("cache", func(context.Context) ComponentHealth { return ComponentHealth{Status: StatusDegraded} })

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "degraded stays ready")
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusDegraded, report.Status)

	c.Register("database", func(context.Context) ComponentHealth { return ComponentHealth{Status: StatusDown} })
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
