package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveTutorRequest(t *testing.T) {
	before := testutil.ToFloat64(TutorRequests.WithLabelValues("ask", "failed"))
	ObserveTutorRequest("ask", "math-primary", true, time.Second, 0)
	ObserveTutorRequest("ask", "math-primary", false, time.Second, 15)

	assert.Equal(t, before+1, testutil.ToFloat64(TutorRequests.WithLabelValues("ask", "failed")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(TutorRequests.WithLabelValues("ask", "success")), 1.0)
}

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}
