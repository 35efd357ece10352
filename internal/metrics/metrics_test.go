package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersRegistered(t *testing.T) {
	before := testutil.ToFloat64(ScenesDetectedTotal.WithLabelValues("adaptive"))
	ScenesDetectedTotal.WithLabelValues("adaptive").Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(ScenesDetectedTotal.WithLabelValues("adaptive")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	FramesKeptTotal.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "scenescribe_frames_kept_total"))
}
