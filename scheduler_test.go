package coroo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnRunsToCompletion(t *testing.T) {
	rt := New()
	ran := false
	rt.Spawn(64*1024, func(any) { ran = true }, nil)
	assert.True(t, ran)
	assert.EqualValues(t, 1, rt.Stats().Spawned)
	assert.EqualValues(t, 1, rt.Stats().Exited)
	assert.EqualValues(t, 1, rt.Stats().Reaped)
}

func TestSpawnPassesArgument(t *testing.T) {
	rt := New()
	var got any
	rt.Spawn(64*1024, func(arg any) { got = arg }, 42)
	assert.Equal(t, 42, got)
}

// TestYieldPreservesFIFOOrder spawns three fibers that each yield once
// before recording their id, then drains the last one with a final
// Yield from the spawning fiber. Because Spawn always hands control back
// to its caller as soon as the newly spawned fiber's first Yield cycles
// the ready queue back around, each fiber's post-yield statement runs in
// the same order its Spawn call was issued.
func TestYieldPreservesFIFOOrder(t *testing.T) {
	rt := New()
	var order []int

	for _, id := range []int{0, 1, 2} {
		id := id
		rt.Spawn(64*1024, func(any) {
			rt.Yield()
			order = append(order, id)
		}, nil)
	}
	rt.Yield() // drain the last fiber's post-yield statement

	assert.Equal(t, []int{0, 1, 2}, order)
	assert.True(t, rt.ready.empty())
	assert.True(t, rt.waiting.empty())
	assert.True(t, rt.dead.empty())
}

func TestQueuesDrainAfterYieldingFiberCompletes(t *testing.T) {
	rt := New()
	rt.Spawn(64*1024, func(any) {
		rt.Yield()
	}, nil)
	rt.Yield() // give the spawned fiber its second turn so it can exit

	assert.True(t, rt.ready.empty())
	assert.True(t, rt.waiting.empty())
	assert.True(t, rt.dead.empty())
}

func TestExitReapsStackOfNonMainFiber(t *testing.T) {
	rt := New()
	f := rt.Spawn(64*1024, func(any) {}, nil)
	require.NotNil(t, f.stack)
	assert.False(t, f.stack.mapped)
}

func TestDefaultRuntimeInitIsIdempotent(t *testing.T) {
	Init()
	first := defaultRuntime
	Init()
	assert.Same(t, first, defaultRuntime)
}

func TestPackageLevelSpawnAndYield(t *testing.T) {
	var order []int
	Spawn(64*1024, func(any) {
		order = append(order, 1)
		Yield()
		order = append(order, 2)
	}, nil)
	Yield() // give the spawned fiber the turn it needs to finish

	assert.Equal(t, []int{1, 2}, order)
}
