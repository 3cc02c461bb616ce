// Package resolver follows indirect references against a set of objects
// keyed by core.ObjectID.
//
// # Basic Usage
//
//	r := resolver.New(doc)
//	page, err := r.ResolveDict(kids[0])
//
// Resolve follows a chain of references (5 0 R pointing at 6 0 R pointing at
// a dictionary) until it reaches a value. A chain that comes back to an id it
// has already visited fails with core.ErrReferenceCycle instead of looping,
// and ResolveOrNull maps every failure to Null.
//
// # Deep Resolution
//
// ResolveDeep returns a copy with every nested reference expanded. It is
// meant for acyclic subtrees such as resource dictionaries.
//
// # Comparing Graphs
//
// Equivalent compares two values by resolved content, which is how a
// document can be checked against a reloaded copy whose objects were
// renumbered or packed differently.
package resolver
