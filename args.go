package rebind

// Args is the normalized argument record handed to a resource's update hook.
// Both fields are non-nil after normalization; a fresh record is produced on
// every re-evaluation.
type Args struct {
	Positional []any          `json:"positional,omitempty" yaml:"positional,omitempty"`
	Named      map[string]any `json:"named,omitempty" yaml:"named,omitempty"`
}

// Thunk produces the current arguments for a binding. It is invoked inside
// the binding's recomputation cell on every evaluation, so tracked values it
// reads entangle the binding with their changes.
//
// The return value may take shorthand shapes:
//   - nil: no arguments
//   - []any: positional arguments only
//   - map[string]any without a "positional" or "named" key: named arguments only
//   - map[string]any with either key: explicit record, missing side defaulted
//   - Args or *Args: explicit record, missing side defaulted
type Thunk func() any

func emptyArgs() Args {
	return Args{Positional: []any{}, Named: map[string]any{}}
}

// normalizeThunk wraps thunk into a canonical Args producer. A nil thunk
// yields empty Args on every call.
//
// The contract is trust-the-caller: no runtime validation is performed, and
// unsupported return shapes normalize to empty Args.
func normalizeThunk(thunk Thunk) func() Args {
	if thunk == nil {
		return emptyArgs
	}
	return func() Args {
		return normalizeValue(thunk())
	}
}

func normalizeValue(v any) Args {
	switch tv := v.(type) {
	case nil:
		return emptyArgs()
	case Args:
		return fillArgs(tv)
	case *Args:
		if tv == nil {
			return emptyArgs()
		}
		return fillArgs(*tv)
	case []any:
		if len(tv) == 0 {
			return emptyArgs()
		}
		return Args{Positional: tv, Named: map[string]any{}}
	case map[string]any:
		if hasRecordKeys(tv) {
			return argsFromRecord(tv)
		}
		return Args{Positional: []any{}, Named: tv}
	default:
		return emptyArgs()
	}
}

func hasRecordKeys(m map[string]any) bool {
	if _, ok := m["positional"]; ok {
		return true
	}
	_, ok := m["named"]
	return ok
}

func argsFromRecord(m map[string]any) Args {
	out := emptyArgs()
	if p, ok := m["positional"].([]any); ok && p != nil {
		out.Positional = p
	}
	if n, ok := m["named"].(map[string]any); ok && n != nil {
		out.Named = n
	}
	return out
}

func fillArgs(a Args) Args {
	if a.Positional == nil {
		a.Positional = []any{}
	}
	if a.Named == nil {
		a.Named = map[string]any{}
	}
	return a
}
