package task

import "github.com/rebindio/rebind"

// State exposes a bound runner through the forwarding view contract. The
// "value" key is intercepted to return the most recently completed result
// (the last known good value while a newer run is in flight); status keys
// forward to the current run.
func State[T any](h *rebind.Handle[*Runner[T]]) *rebind.View {
	return rebind.NewView(func() (rebind.Gettable, error) {
		r, err := h.Current()
		if err != nil {
			return nil, err
		}
		return stateView[T]{runner: r}, nil
	})
}

type stateView[T any] struct {
	runner *Runner[T]
}

func (v stateView[T]) Get(key string) (any, error) {
	switch key {
	case "value":
		value, ok := v.runner.Value()
		if !ok {
			return nil, nil
		}
		return value, nil
	case "isRunning":
		return v.runner.IsRunning(), nil
	case "isFinished":
		return v.runner.IsFinished(), nil
	case "error":
		return v.runner.Err(), nil
	}
	return nil, rebind.KeyNotFoundError{Key: key}
}

func (v stateView[T]) Keys() ([]string, error) {
	return []string{"value", "isRunning", "isFinished", "error"}, nil
}

func (v stateView[T]) Describe(key string) (rebind.Property, error) {
	value, err := v.Get(key)
	if err != nil {
		return rebind.Property{}, err
	}
	return rebind.Property{Name: key, Value: value}, nil
}
