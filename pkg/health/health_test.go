package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_WorstStatusWins(t *testing.T) {
	t.Parallel()

	c := NewChecker("postserver")
	c.Register("a", func(ctx context.Context) ComponentHealth { return ComponentHealth{Status: StatusUp} })
	c.Register("b", func(ctx context.Context) ComponentHealth { return ComponentHealth{Status: StatusDegraded} })

	report := c.Run(context.Background())

	assert.Equal(t, StatusDegraded, report.Status)
	assert.Len(t, report.Components, 2)

	c.Register("c", func(ctx context.Context) ComponentHealth { return ComponentHealth{Status: StatusDown} })
	assert.Equal(t, StatusDown, c.Run(context.Background()).Status)
}

func TestPostIndexCheck(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusDegraded, PostIndexCheck(func() int { return 0 })(context.Background()).Status)

	up := PostIndexCheck(func() int { return 3 })(context.Background())
	assert.Equal(t, StatusUp, up.Status)
	assert.Equal(t, "3 posts loaded", up.Message)
}

func TestReadyHandler(t *testing.T) {
	t.Parallel()

	c := NewChecker("postserver")
	c.Register("post_index", PostIndexCheck(func() int { return 0 }))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "degraded is still ready")

	c.Register("broken", func(ctx context.Context) ComponentHealth { return ComponentHealth{Status: StatusDown} })
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDown, report.Status)
}

func TestLiveHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewChecker("postserver").LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive","service":"postserver"}`, rec.Body.String())
}
