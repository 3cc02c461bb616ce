package resolver

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// DefaultMaxDepth bounds reference chains and nested expansion.
const DefaultMaxDepth = 100

// ObjectGetter looks objects up by id. *document.Document implements it.
type ObjectGetter interface {
	GetObject(id core.ObjectID) (core.Object, error)
}

// Resolver follows indirect references against an ObjectGetter. It keeps no
// state between calls, so one Resolver may be used from several goroutines
// as long as the getter allows it.
type Resolver struct {
	objects  ObjectGetter
	maxDepth int
}

// Option configures the resolver
type Option func(*Resolver)

// WithMaxDepth sets the maximum chain length and nesting depth (default: 100)
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// New creates a resolver over objects
func New(objects ObjectGetter, opts ...Option) *Resolver {
	r := &Resolver{objects: objects, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve follows obj while it is a reference and returns the first value
// that is not. Anything else is returned unchanged. A chain that revisits an
// id fails with core.ErrReferenceCycle.
func (r *Resolver) Resolve(obj core.Object) (core.Object, error) {
	var seen map[core.ObjectID]bool
	for depth := 0; ; depth++ {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			return obj, nil
		}
		if depth >= r.maxDepth {
			return nil, &core.ReferenceError{ID: ref.ID(), Err: core.ErrMaxDepth}
		}
		if seen == nil {
			seen = make(map[core.ObjectID]bool)
		}
		if seen[ref.ID()] {
			return nil, &core.ReferenceError{ID: ref.ID(), Err: core.ErrReferenceCycle}
		}
		seen[ref.ID()] = true

		next, err := r.objects.GetObject(ref.ID())
		if err != nil {
			var refErr *core.ReferenceError
			if errors.As(err, &refErr) {
				return nil, err
			}
			return nil, &core.ReferenceError{ID: ref.ID(), Err: err}
		}
		obj = next
	}
}

// ResolveOrNull is Resolve with every failure mapped to Null, for callers
// that treat dangling and cyclic references as absent values.
func (r *Resolver) ResolveOrNull(obj core.Object) core.Object {
	resolved, err := r.Resolve(obj)
	if err != nil || resolved == nil {
		return core.Null{}
	}
	return resolved
}

// ResolveDict resolves obj and requires a dictionary. Stream dictionaries
// are accepted.
func (r *Resolver) ResolveDict(obj core.Object) (*core.Dict, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch v := resolved.(type) {
	case *core.Dict:
		return v, nil
	case *core.Stream:
		return v.Dict, nil
	}
	return nil, fmt.Errorf("expected dictionary, got %T", resolved)
}

// ResolveArray resolves obj and requires an array
func (r *Resolver) ResolveArray(obj core.Object) (core.Array, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	arr, ok := resolved.(core.Array)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", resolved)
	}
	return arr, nil
}

// ResolveDeep returns a copy of obj with every reference replaced by the
// value it points to. Graphs with cycles (a page and its parent, say) cannot
// be expanded and fail with core.ErrReferenceCycle.
func (r *Resolver) ResolveDeep(obj core.Object) (core.Object, error) {
	return r.deep(obj, make(map[core.ObjectID]bool), 0)
}

func (r *Resolver) deep(obj core.Object, path map[core.ObjectID]bool, depth int) (core.Object, error) {
	if depth > r.maxDepth {
		return nil, fmt.Errorf("deep resolution: %w", core.ErrMaxDepth)
	}

	switch v := obj.(type) {
	case core.IndirectRef:
		if path[v.ID()] {
			return nil, &core.ReferenceError{ID: v.ID(), Err: core.ErrReferenceCycle}
		}
		target, err := r.objects.GetObject(v.ID())
		if err != nil {
			return nil, &core.ReferenceError{ID: v.ID(), Err: err}
		}
		path[v.ID()] = true
		defer delete(path, v.ID())
		return r.deep(target, path, depth+1)

	case core.Array:
		out := make(core.Array, len(v))
		for i, elem := range v {
			resolved, err := r.deep(elem, path, depth+1)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out[i] = resolved
		}
		return out, nil

	case *core.Dict:
		out := core.NewDict()
		var err error
		v.Range(func(key string, val core.Object) bool {
			var resolved core.Object
			resolved, err = r.deep(val, path, depth+1)
			if err != nil {
				err = fmt.Errorf("key %s: %w", key, err)
				return false
			}
			out.Set(key, resolved)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil

	case *core.Stream:
		dict, err := r.deep(v.Dict, path, depth+1)
		if err != nil {
			return nil, fmt.Errorf("stream dictionary: %w", err)
		}
		return core.NewStream(dict.(*core.Dict), v.Data), nil
	}
	return core.Copy(obj), nil
}
