package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordErrorTripsAtThreshold(t *testing.T) {
	cb := New(time.Minute, 3)
	assert.False(t, cb.RecordError(false))
	assert.False(t, cb.RecordError(false))
	assert.True(t, cb.RecordError(false))
	assert.True(t, cb.Tripped())
}

func TestRecordErrorCriticalTripsImmediately(t *testing.T) {
	cb := New(time.Minute, 5)
	assert.True(t, cb.RecordError(true))
	assert.True(t, cb.Tripped())
}

func TestResetClearsTrippedState(t *testing.T) {
	cb := New(time.Minute, 1)
	cb.RecordError(true)
	assert.True(t, cb.Tripped())
	cb.Reset()
	assert.False(t, cb.Tripped())
	assert.Equal(t, float64(0), cb.ErrorRate())
}

func TestErrorsOutsideWindowAreExpired(t *testing.T) {
	now := time.Unix(0, 0)
	cb := New(time.Minute, 2)
	cb.nowFn = func() time.Time { return now }

	cb.RecordError(false)
	now = now.Add(2 * time.Minute)
	assert.False(t, cb.Tripped(), "error outside the window must not keep the breaker tripped")
	assert.Equal(t, float64(0), cb.ErrorRate())
}

func TestErrorRate(t *testing.T) {
	now := time.Unix(0, 0)
	cb := New(2*time.Hour, 100)
	cb.nowFn = func() time.Time { return now }

	cb.RecordError(false)
	cb.RecordError(false)
	assert.Equal(t, float64(1), cb.ErrorRate())
}
