package rebind

// Property describes one key of a Gettable, in the manner of a property
// descriptor: the current value and whether it is callable.
type Property struct {
	Name     string
	Value    any
	Callable bool
}

// Gettable is the explicit forwarding contract a resource implements to be
// exposed through a View. Function-valued results should be method values so
// the receiver is the instance that produced them.
type Gettable interface {
	// Get returns the value for key. A missing key is a KeyNotFoundError.
	Get(key string) (any, error)
	// Keys enumerates the exposed keys.
	Keys() ([]string, error)
	// Describe returns the descriptor for key.
	Describe(key string) (Property, error)
}

// View forwards key access to whichever instance is currently live. Every
// method resolves the instance anew, so each access is a fresh opportunity
// for re-evaluation and dependency entanglement; the resolved instance is
// never cached across calls.
type View struct {
	resolve func() (Gettable, error)
}

// NewView wraps a resolver for the current instance. Resolution errors
// (construction or update failures) propagate through every accessor.
func NewView(resolve func() (Gettable, error)) *View {
	return &View{resolve: resolve}
}

// ViewOf wraps a handle whose instance type implements Gettable.
func ViewOf[T Gettable](h *Handle[T]) *View {
	return NewView(func() (Gettable, error) {
		v, err := h.Current()
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

func (v *View) Get(key string) (any, error) {
	g, err := v.resolve()
	if err != nil {
		return nil, err
	}
	return g.Get(key)
}

func (v *View) Keys() ([]string, error) {
	g, err := v.resolve()
	if err != nil {
		return nil, err
	}
	return g.Keys()
}

func (v *View) Describe(key string) (Property, error) {
	g, err := v.resolve()
	if err != nil {
		return Property{}, err
	}
	return g.Describe(key)
}

// GetAs resolves key through the view and casts the result to T.
func GetAs[T any](v *View, key string) (T, error) {
	raw, err := v.Get(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](raw)
}
