package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerIDStableAcrossPolls(t *testing.T) {
	w := &Worker{}
	first := w.workerID()
	require.NotEmpty(t, first)
	assert.Equal(t, first, w.workerID(), "fallback identity is minted once per process")

	named := &Worker{ID: "worker-7"}
	assert.Equal(t, "worker-7", named.workerID())
	assert.Equal(t, "worker-7", named.workerID())
}

func TestWorkerTopicFor(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "pricing.events.v1", w.topicFor("pricing.rules_updated"))
	assert.Equal(t, "pricing.events.v1", w.topicFor("pricing"))

	w.TopicPrefix = "stage."
	assert.Equal(t, "stage.pricing.events.v1", w.topicFor("pricing.rules_updated"))
}

func TestWorkerNextRetryBackoff(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, 10 * time.Second}}
	now := time.Now()

	assert.WithinDuration(t, now.Add(time.Second), w.nextRetry(0), time.Second)
	assert.WithinDuration(t, now.Add(10*time.Second), w.nextRetry(1), time.Second)
	assert.WithinDuration(t, now.Add(10*time.Second), w.nextRetry(5), time.Second, "attempts beyond the schedule reuse the last step")

	assert.WithinDuration(t, now.Add(5*time.Second), (&Worker{}).nextRetry(3), time.Second)
}
