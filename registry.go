package rebind

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

type registryKey struct {
	kind   string
	driver string
}

type compiledDefinition struct {
	decode  func(raw json.RawMessage) (any, error)
	build   func(owner *Owner, opt any) (any, error)
	closeFn func(out any) error
}

// Registry stores resource definitions by (kind, driver) so bindings can be
// declared through ResourceSpec values instead of code.
type Registry struct {
	mu   sync.RWMutex
	defs map[registryKey]compiledDefinition
}

func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[registryKey]compiledDefinition),
	}
}

// Register registers one resource definition with generics.
func Register[Opt any, Out any](r *Registry, kind string, driver string, def Definition[Opt, Out]) error {
	if r == nil {
		return fmt.Errorf("register resource definition: registry is nil")
	}
	if kind == "" {
		return fmt.Errorf("register resource definition: kind is empty")
	}
	if driver == "" {
		return fmt.Errorf("register resource definition: driver is empty")
	}
	if def.Build == nil {
		return InvalidFactoryError{Reason: fmt.Sprintf("build func is nil for %s:%s", kind, driver)}
	}

	decodeFn := def.Decode
	if decodeFn == nil {
		decodeFn = defaultDecode[Opt]
	}

	compiled := compiledDefinition{
		decode: func(raw json.RawMessage) (any, error) {
			opt, err := decodeFn(raw)
			if err != nil {
				return nil, err
			}
			return opt, nil
		},
		build: func(owner *Owner, opt any) (any, error) {
			typed, ok := opt.(Opt)
			if !ok {
				return nil, fmt.Errorf("build option type mismatch: want=%T got=%T", *new(Opt), opt)
			}
			return def.Build(owner, typed)
		},
	}
	if def.Close != nil {
		compiled.closeFn = func(out any) error {
			typed, ok := out.(Out)
			if !ok {
				return fmt.Errorf("close output type mismatch: want=%T got=%T", *new(Out), out)
			}
			return def.Close(typed)
		}
	}

	k := registryKey{kind: kind, driver: driver}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[k]; exists {
		return DuplicateDefinitionError{Kind: kind, Driver: driver}
	}
	r.defs[k] = compiled
	return nil
}

// MustRegister panics on registration error; intended for bootstrap code paths.
func MustRegister[Opt any, Out any](r *Registry, kind string, driver string, def Definition[Opt, Out]) {
	if err := Register(r, kind, driver, def); err != nil {
		panic(err)
	}
}

func (r *Registry) get(kind string, driver string) (compiledDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[registryKey{kind: kind, driver: driver}]
	return def, ok
}

// BindSpec decodes the spec's options and binds the declared resource
// through the core. The returned handle is untyped; use As to narrow values
// fetched from it. The definition's Close hook, when present, is registered
// with the owner so it runs on cascading teardown.
func (r *Registry) BindSpec(owner *Owner, spec ResourceSpec, thunk Thunk, opts ...Option) (*Handle[any], error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}
	def, ok := r.get(spec.Kind, spec.Driver)
	if !ok {
		return nil, DefinitionNotFoundError{Kind: spec.Kind, Driver: spec.Driver}
	}
	opt, err := def.decode(spec.Options)
	if err != nil {
		return nil, fmt.Errorf("decode options for %s: %w", spec.ID().String(), err)
	}

	factory := Factory[any](func(o *Owner) (any, error) {
		out, err := def.build(o, opt)
		if err != nil {
			return nil, err
		}
		if def.closeFn != nil {
			hook := DestroyFunc(func() error { return def.closeFn(out) })
			if err := o.RegisterChild(hook); err != nil {
				return nil, err
			}
		}
		return out, nil
	})
	return Bind(owner, factory, thunk, opts...)
}

func validateSpec(spec ResourceSpec) error {
	if spec.Kind == "" {
		return fmt.Errorf("spec.kind is empty")
	}
	if spec.Name == "" {
		return fmt.Errorf("spec.name is empty")
	}
	if spec.Driver == "" {
		return fmt.Errorf("spec.driver is empty")
	}
	return nil
}

func defaultDecode[Opt any](raw json.RawMessage) (Opt, error) {
	var opt Opt
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return opt, nil
	}
	if err := json.Unmarshal(raw, &opt); err != nil {
		return opt, err
	}
	return opt, nil
}
