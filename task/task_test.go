package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebindio/rebind"
	"github.com/rebindio/rebind/track"
)

func TestRunnerLifecycle(t *testing.T) {
	owner := rebind.NewOwner()
	x := track.NewSource(1)
	started := make(chan int, 4)
	release := make(chan struct{})

	def := &Def[int]{Run: func(_ context.Context, positional []any, _ map[string]any) (int, error) {
		v := positional[0].(int)
		started <- v
		<-release
		return v * 10, nil
	}}

	handle, err := From(owner, def, func() any { return []any{x.Get()} })
	require.NoError(t, err)

	runner, err := handle.Current()
	require.NoError(t, err)
	assert.Equal(t, 1, <-started, "first access starts the first run")

	assert.True(t, runner.IsRunning())
	assert.False(t, runner.IsFinished())
	_, ok := runner.Value()
	assert.False(t, ok, "no value before any run completes")

	close(release)
	require.Eventually(t, runner.IsFinished, time.Second, 5*time.Millisecond)
	v, ok := runner.Value()
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.False(t, runner.IsRunning())
}

func TestRunnerLastKnownGoodWhileInFlight(t *testing.T) {
	owner := rebind.NewOwner()
	x := track.NewSource(1)
	releases := map[int]chan struct{}{
		1: make(chan struct{}),
		2: make(chan struct{}),
	}
	started := make(chan int, 4)

	def := &Def[int]{Run: func(_ context.Context, positional []any, _ map[string]any) (int, error) {
		v := positional[0].(int)
		started <- v
		<-releases[v]
		return v * 10, nil
	}}

	handle, err := From(owner, def, func() any { return []any{x.Get()} })
	require.NoError(t, err)
	runner, err := handle.Current()
	require.NoError(t, err)
	<-started

	close(releases[1])
	require.Eventually(t, runner.IsFinished, time.Second, 5*time.Millisecond)

	// Changing the arguments starts a second run on next access.
	x.Set(2)
	_, err = handle.Current()
	require.NoError(t, err)
	assert.Equal(t, 2, <-started)

	assert.True(t, runner.IsRunning())
	assert.False(t, runner.IsFinished())
	v, ok := runner.Value()
	require.True(t, ok)
	assert.Equal(t, 10, v, "value holds the last completed result while a run is in flight")

	close(releases[2])
	require.Eventually(t, runner.IsFinished, time.Second, 5*time.Millisecond)
	v, _ = runner.Value()
	assert.Equal(t, 20, v)
}

func TestRunnerLatestWins(t *testing.T) {
	owner := rebind.NewOwner()
	x := track.NewSource(1)
	releases := map[int]chan struct{}{
		1: make(chan struct{}),
		2: make(chan struct{}),
	}
	started := make(chan int, 4)

	def := &Def[int]{Run: func(_ context.Context, positional []any, _ map[string]any) (int, error) {
		v := positional[0].(int)
		started <- v
		<-releases[v]
		return v * 10, nil
	}}

	handle, err := From(owner, def, func() any { return []any{x.Get()} })
	require.NoError(t, err)
	runner, err := handle.Current()
	require.NoError(t, err)
	<-started

	x.Set(2)
	_, err = handle.Current()
	require.NoError(t, err)
	<-started

	// Newest run finishes first; the stale completion must not overwrite it.
	close(releases[2])
	require.Eventually(t, runner.IsFinished, time.Second, 5*time.Millisecond)
	close(releases[1])
	require.Eventually(t, func() bool { return !runner.IsRunning() }, time.Second, 5*time.Millisecond)

	v, ok := runner.Value()
	require.True(t, ok)
	assert.Equal(t, 20, v, "a stale completion is discarded")
}

func TestRunnerError(t *testing.T) {
	owner := rebind.NewOwner()
	boom := errors.New("boom")
	def := &Def[int]{Run: func(context.Context, []any, map[string]any) (int, error) {
		return 0, boom
	}}

	handle, err := From(owner, def, nil)
	require.NoError(t, err)
	runner, err := handle.Current()
	require.NoError(t, err)

	require.Eventually(t, runner.IsFinished, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, runner.Err(), boom)
	_, ok := runner.Value()
	assert.False(t, ok)
}

func TestWrapperRegistryReuse(t *testing.T) {
	def := &Def[int]{Run: func(context.Context, []any, map[string]any) (int, error) {
		return 0, nil
	}}

	_, err := wrapperFor(def)
	require.NoError(t, err)
	wrappers.mu.Lock()
	before := len(wrappers.factories)
	wrappers.mu.Unlock()

	_, err = wrapperFor(def)
	require.NoError(t, err)
	wrappers.mu.Lock()
	after := len(wrappers.factories)
	wrappers.mu.Unlock()

	assert.Equal(t, before, after, "repeated binds of one definition share a wrapper")
}

func TestWrapperRejectsEmptyDefinition(t *testing.T) {
	_, err := wrapperFor[int](nil)
	require.Error(t, err)
	_, err = wrapperFor(&Def[int]{})
	require.Error(t, err)
}

func TestStateView(t *testing.T) {
	owner := rebind.NewOwner()
	x := track.NewSource(1)
	def := &Def[int]{Run: func(_ context.Context, positional []any, _ map[string]any) (int, error) {
		return positional[0].(int) * 10, nil
	}}

	handle, err := From(owner, def, func() any { return []any{x.Get()} })
	require.NoError(t, err)
	view := State(handle)

	runner, err := handle.Current()
	require.NoError(t, err)
	require.Eventually(t, runner.IsFinished, time.Second, 5*time.Millisecond)

	v, err := view.Get("value")
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	finished, err := view.Get("isFinished")
	require.NoError(t, err)
	assert.Equal(t, true, finished)

	runErr, err := view.Get("error")
	require.NoError(t, err)
	assert.Nil(t, runErr)

	keys, err := view.Keys()
	require.NoError(t, err)
	assert.Contains(t, keys, "value")
	assert.Contains(t, keys, "isRunning")

	_, err = view.Get("missing")
	require.Error(t, err)
	var notFound rebind.KeyNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestRunnerDestroyDiscardsInFlight(t *testing.T) {
	owner := rebind.NewOwner()
	started := make(chan struct{})
	release := make(chan struct{})
	def := &Def[int]{Run: func(context.Context, []any, map[string]any) (int, error) {
		close(started)
		<-release
		return 7, nil
	}}

	handle, err := From(owner, def, nil)
	require.NoError(t, err)
	runner, err := handle.Current()
	require.NoError(t, err)
	<-started

	require.NoError(t, owner.Destroy())
	close(release)
	require.Eventually(t, func() bool { return !runner.IsRunning() }, time.Second, 5*time.Millisecond)
	_, ok := runner.Value()
	assert.False(t, ok, "a completion after teardown is discarded")
}
