package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebindio/rebind"
	"github.com/rebindio/rebind/track"
)

func TestDebounceTrailsInput(t *testing.T) {
	owner := rebind.NewOwner()
	input := track.NewSource(0)

	d, err := New(owner, 20*time.Millisecond, input.Get)
	require.NoError(t, err)

	input.Set(5)
	v, err := d.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v, "the new value is not visible before the quiet period")

	require.Eventually(t, func() bool {
		v, err := d.Get()
		return err == nil && v == 5
	}, time.Second, 5*time.Millisecond)
}

func TestDebounceRestartsQuietPeriod(t *testing.T) {
	owner := rebind.NewOwner()
	input := track.NewSource(0)

	d, err := New(owner, 200*time.Millisecond, input.Get)
	require.NoError(t, err)

	input.Set(1)
	_, err = d.Get()
	require.NoError(t, err)
	input.Set(2)
	_, err = d.Get()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v, err := d.Get()
		return err == nil && v == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDebounceStopsOnTeardown(t *testing.T) {
	owner := rebind.NewOwner()
	input := track.NewSource(0)

	d, err := New(owner, 20*time.Millisecond, input.Get)
	require.NoError(t, err)

	input.Set(9)
	_, err = d.Get()
	require.NoError(t, err)

	require.NoError(t, owner.Destroy())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, d.res.out.Get(), "a pending settle is cancelled by teardown")
}
