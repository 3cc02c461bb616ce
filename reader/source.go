package reader

import (
	"fmt"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/crypt"
)

// objectSource reads objects straight from the file on demand. It backs
// the metadata-only path and resolves indirect stream lengths during a full
// load. Object streams are kept in an LRU cache.
type objectSource struct {
	data  []byte
	table *core.XRefTable
	state *crypt.State

	mu         sync.Mutex
	containers *lru.Cache
}

// container is the parsed content of one object stream
type container struct {
	objects map[uint32]core.Object
	failed  map[uint32]error
	extends uint32 // 0 when the stream extends nothing
}

func newObjectSource(data []byte, table *core.XRefTable, cacheSize int) *objectSource {
	return &objectSource{
		data:       data,
		table:      table,
		containers: lru.New(cacheSize),
	}
}

// GetObject parses and decrypts the object id. Members of object streams
// are looked up in their decoded container.
func (s *objectSource) GetObject(id core.ObjectID) (core.Object, error) {
	entry, ok := s.table.Get(id.Number)
	if !ok || entry.Type == core.XRefFree {
		return nil, &core.ReferenceError{ID: id, Err: core.ErrObjectNotFound}
	}

	if entry.Type == core.XRefCompressed {
		if id.Generation != 0 {
			return nil, &core.ReferenceError{ID: id, Err: core.ErrObjectNotFound}
		}
		obj, err := s.member(entry.Container, id.Number)
		if err != nil {
			return nil, &core.ReferenceError{ID: id, Err: err}
		}
		return obj, nil
	}

	if entry.Generation != id.Generation {
		return nil, &core.ReferenceError{ID: id, Err: core.ErrObjectNotFound}
	}
	ind, err := core.ParseObjectAt(s.data, int(entry.Offset), s)
	if err != nil {
		return nil, &core.ReferenceError{ID: id, Err: err}
	}
	if ind.ID.Number != id.Number {
		return nil, &core.ReferenceError{ID: id, Err: fmt.Errorf("offset holds object %v", ind.ID)}
	}
	return s.decrypt(ind.ID, ind.Object)
}

// ResolveReference resolves indirect stream lengths for the parser. Only
// directly stored objects are parsed, without a resolver of their own, so a
// Length that points back into the stream cannot recurse.
func (s *objectSource) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	entry, ok := s.table.Get(ref.Number)
	if !ok || entry.Type != core.XRefInUse {
		return nil, &core.ReferenceError{ID: ref.ID(), Err: core.ErrObjectNotFound}
	}
	ind, err := core.ParseObjectAt(s.data, int(entry.Offset), nil)
	if err != nil {
		return nil, err
	}
	return ind.Object, nil
}

func (s *objectSource) decrypt(id core.ObjectID, obj core.Object) (core.Object, error) {
	if s.state == nil {
		return obj, nil
	}
	return s.state.DecryptObject(id, obj)
}

// member finds num in the object stream containerNum, following the
// stream's Extends chain when the member is not stored there. The result is
// a copy, so callers may modify it.
func (s *objectSource) member(containerNum, num uint32) (core.Object, error) {
	seen := make(map[uint32]bool)
	for !seen[containerNum] {
		seen[containerNum] = true
		objStm, err := s.objectStream(containerNum)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		found, err := objStm.ContainsObject(num)
		var obj core.Object
		if err == nil && found {
			obj, _, err = objStm.GetObjectByNumber(num)
		}
		extends := objStm.Extends()
		s.mu.Unlock()

		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", containerNum, err)
		}
		if found {
			return core.Copy(obj), nil
		}
		if extends == nil {
			break
		}
		containerNum = extends.Number
	}
	return nil, core.ErrObjectNotFound
}

// objectStream returns object stream num, from the cache when possible.
// Members are parsed on first access; callers hold s.mu while reading them.
func (s *objectSource) objectStream(num uint32) (*core.ObjectStream, error) {
	s.mu.Lock()
	if cached, ok := s.containers.Get(num); ok {
		s.mu.Unlock()
		return cached.(*core.ObjectStream), nil
	}
	s.mu.Unlock()

	entry, ok := s.table.Get(num)
	if !ok || entry.Type != core.XRefInUse {
		return nil, fmt.Errorf("object stream %d: %w", num, core.ErrObjectNotFound)
	}
	obj, err := s.GetObject(core.ObjectID{Number: num, Generation: entry.Generation})
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("object stream %d is %T", num, obj)
	}
	objStm, err := core.NewObjectStream(stream)
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", num, err)
	}

	s.mu.Lock()
	s.containers.Add(num, objStm)
	s.mu.Unlock()
	return objStm, nil
}

// decodeContainer parses every member of an object stream for the full load
func decodeContainer(stream *core.Stream) (*container, error) {
	objStm, err := core.NewObjectStream(stream)
	if err != nil {
		return nil, err
	}
	objects, failed, err := objStm.Objects()
	if err != nil {
		return nil, err
	}
	c := &container{objects: objects, failed: failed}
	if ref := objStm.Extends(); ref != nil {
		c.extends = ref.Number
	}
	return c, nil
}
