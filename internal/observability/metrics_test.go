package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/x", "GET", 200, time.Millisecond)
	m.RecordError("/x", "GET", "NOT_FOUND")
	m.RecordPublish("UserCreated", OutcomeOK)
	m.RecordConsume("q", "UserCreated", OutcomeAcked)
}

func TestConsumeCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordConsume("user_created_queue", "UserCreated", OutcomeAcked)
	m.RecordConsume("user_created_queue", "UserCreated", OutcomeAcked)
	m.RecordConsume("user_created_queue", "UserCreated", OutcomeRejected)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.consumed.WithLabelValues("user_created_queue", "UserCreated", OutcomeAcked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.consumed.WithLabelValues("user_created_queue", "UserCreated", OutcomeRejected)))
}

func TestPublishCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordPublish("ProfileUpdated", OutcomeFailed)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("ProfileUpdated", OutcomeFailed)))
}
