package reembed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(buf *bytes.Buffer, total, interval int) (*ProgressTracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	tracker := NewProgressTracker(buf, total, interval)
	tracker.now = clock.now
	return tracker, clock
}

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker, clock := newTestTracker(&buf, 100, 10)

	tracker.Start()
	assert.True(t, tracker.started)

	clock.advance(time.Second)
	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)

	assert.Equal(t, time.Second, tracker.Elapsed())
	output := buf.String()
	assert.Contains(t, output, "100/100")
	assert.Contains(t, output, "100.0%")
}

func TestProgressTracker_RateAndETA(t *testing.T) {
	var buf bytes.Buffer
	tracker, clock := newTestTracker(&buf, 1000, 100)

	tracker.Start()
	clock.advance(10 * time.Second)
	tracker.Update(250)

	output := buf.String()
	assert.Contains(t, output, "250/1000 (25.0%)")
	assert.Contains(t, output, "25.0 chunks/s")
	assert.Contains(t, output, "ETA 30s")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker, clock := newTestTracker(&buf, 100, 10)

	tracker.Start()
	clock.advance(time.Second)
	tracker.Update(50)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "100/100")
	assert.True(t, strings.HasSuffix(output, "\n"))
	assert.NotContains(t, output[strings.LastIndex(output, "\r"):], "ETA")
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker, _ := newTestTracker(&buf, 0, 10)

	tracker.Start()
	tracker.Finish()

	assert.Contains(t, buf.String(), "0/0")
}

func TestProgressTracker_IncrementBeyondTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker, clock := newTestTracker(&buf, 100, 10)

	tracker.Start()
	clock.advance(time.Second)
	tracker.Increment(150)

	assert.Contains(t, buf.String(), "100/100")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker, _ := newTestTracker(&buf, 100, 10)

	tracker.Increment(10)
	tracker.Update(20)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker, clock := newTestTracker(&buf, 1000, 100)

	tracker.Start()
	clock.advance(time.Second)

	tracker.Update(50)
	assert.Empty(t, buf.String(), "should not print under interval")

	tracker.Update(100)
	assert.NotEmpty(t, buf.String(), "should print at interval")

	buf.Reset()
	tracker.Update(150)
	assert.Empty(t, buf.String(), "interval counts from the last report")

	tracker.Update(250)
	assert.NotEmpty(t, buf.String())
}

func TestProgressTracker_MinimumInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker, clock := newTestTracker(&buf, 10, 0)

	tracker.Start()
	clock.advance(time.Second)
	tracker.Increment(1)
	assert.Contains(t, buf.String(), "1/10")
}
