package coroo

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// driveUntil keeps the scheduler's readiness multiplexer running from the
// calling (main) fiber in small timed slices until done reports true.
// This package exposes no "run until idle" entry point: the readiness
// multiplexer only ever runs as a side effect of some fiber's own
// blocking call.
func driveUntil(rt *Runtime, done *bool) {
	for !*done {
		rt.PollOne(-1, 0, 5)
	}
}

func TestPollOneWakesOnReadable(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	rt := New()
	done := false
	var got PollEvent
	rt.Spawn(64*1024, func(any) {
		got = rt.PollOne(int(r.Fd()), PollIn, -1)
		done = true
	}, nil)
	driveUntil(rt, &done)

	assert.NotZero(t, got&PollIn)
}

func TestPollOneTimesOutWithNoActivity(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	rt := New()
	done := false
	var got PollEvent
	start := time.Now()
	rt.Spawn(64*1024, func(any) {
		got = rt.PollOne(int(r.Fd()), PollIn, 30)
		done = true
	}, nil)
	driveUntil(rt, &done)
	elapsed := time.Since(start)

	assert.Zero(t, got)
	assert.GreaterOrEqual(t, elapsed, 25*time.Millisecond)
}

func TestPollAggregatesMultipleFibers(t *testing.T) {
	r1, w1, err := os.Pipe()
	require.NoError(t, err)
	defer r1.Close()
	defer w1.Close()
	r2, w2, err := os.Pipe()
	require.NoError(t, err)
	defer r2.Close()
	defer w2.Close()

	_, err = w2.Write([]byte("y"))
	require.NoError(t, err)

	rt := New()
	var firstDone, secondDone bool
	var firstEv, secondEv PollEvent

	rt.Spawn(64*1024, func(any) {
		firstEv = rt.PollOne(int(r1.Fd()), PollIn, 30)
		firstDone = true
	}, nil)
	rt.Spawn(64*1024, func(any) {
		secondEv = rt.PollOne(int(r2.Fd()), PollIn, -1)
		secondDone = true
	}, nil)

	for !firstDone || !secondDone {
		rt.PollOne(-1, 0, 5)
	}

	assert.Zero(t, firstEv)
	assert.NotZero(t, secondEv&PollIn)
}
