package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/tags/", "200"))
	RecordHTTPRequest("GET", "/api/tags/", 200, 5*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/tags/", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordHTTPRequestUnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	RecordHTTPRequest("GET", "", 404, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestRecordToggleConflict(t *testing.T) {
	before := testutil.ToFloat64(ToggleConflicts.WithLabelValues("favorite"))
	RecordToggleConflict("favorite")
	RecordToggleConflict("favorite")
	assert.Equal(t, before+2, testutil.ToFloat64(ToggleConflicts.WithLabelValues("favorite")))
}
