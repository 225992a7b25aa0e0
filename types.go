package rebind

import "encoding/json"

// ID is the unique identifier of a declared resource binding.
// Kind identifies the resource type (for example, cache or fetcher).
// Name identifies one binding within the same kind.
type ID struct {
	Kind string `json:"kind" yaml:"kind"`
	Name string `json:"name" yaml:"name"`
}

func (id ID) String() string {
	return id.Kind + "/" + id.Name
}

// ResourceSpec is the framework-agnostic declaration of one binding. Any
// config layer that can map into this struct can bind resources through a
// Registry.
type ResourceSpec struct {
	Kind    string          `json:"kind" yaml:"kind"`
	Name    string          `json:"name" yaml:"name"`
	Driver  string          `json:"driver" yaml:"driver"`
	Options json.RawMessage `json:"options,omitempty" yaml:"options,omitempty"`
}

func (s ResourceSpec) ID() ID {
	return ID{Kind: s.Kind, Name: s.Name}
}

// Definition describes the lifecycle of resources built for one
// (kind, driver).
//
// Decode converts raw options into Opt. Defaults to JSON decoding.
// Build constructs the instance and must be provided; the instance may
// implement Updater to receive argument changes.
// Close is an optional teardown hook. If omitted, the instance's own
// Destroyer or io.Closer implementation is used when present.
type Definition[Opt any, Out any] struct {
	Decode func(raw json.RawMessage) (Opt, error)
	Build  func(owner *Owner, opt Opt) (Out, error)
	Close  func(out Out) error
}
