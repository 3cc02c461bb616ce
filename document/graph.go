package document

import (
	"github.com/tsawler/pdfgraph/core"
)

// RenumberObjects renumbers every object starting at 1
func (d *Document) RenumberObjects() {
	d.RenumberObjectsWith(1)
}

// RenumberObjectsWith gives the objects consecutive numbers from start, in
// ascending id order, keeping generations. The complete old to new map is
// built first and then applied to every reference in the graph and the
// trailer in one pass, so no id is rewritten twice. References to ids that
// are not in the document become null, since their numbers may now belong to
// other objects. Running it again with the same start changes nothing.
func (d *Document) RenumberObjectsWith(start uint32) {
	if start == 0 {
		start = 1
	}

	mapping := make(map[core.ObjectID]core.ObjectID)
	next := start
	for _, id := range d.ObjectIDs() {
		newID := core.ObjectID{Number: next, Generation: id.Generation}
		if newID != id {
			mapping[id] = newID
		}
		next++
	}
	if len(d.Objects) > 0 {
		d.MaxID = next - 1
	}

	rewrite := func(obj core.Object) core.Object {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			return obj
		}
		if newID, ok := mapping[ref.ID()]; ok {
			return core.IndirectRef(newID)
		}
		if _, ok := d.Objects[ref.ID()]; !ok {
			return core.Null{}
		}
		return obj
	}

	objects := make(map[core.ObjectID]core.Object, len(d.Objects))
	for id, obj := range d.Objects {
		if newID, ok := mapping[id]; ok {
			id = newID
		}
		objects[id] = core.Transform(obj, rewrite)
	}
	d.Objects = objects
	core.Transform(d.Trailer, rewrite)
}

// Reachable returns the ids reachable from the trailer, following references
// through dictionaries, arrays and stream dictionaries
func (d *Document) Reachable() map[core.ObjectID]bool {
	seen := make(map[core.ObjectID]bool)
	var queue []core.ObjectID

	collect := func(obj core.Object) {
		core.Walk(obj, func(o core.Object) {
			ref, ok := o.(core.IndirectRef)
			if !ok || seen[ref.ID()] {
				return
			}
			if _, exists := d.Objects[ref.ID()]; !exists {
				return
			}
			seen[ref.ID()] = true
			queue = append(queue, ref.ID())
		})
	}

	collect(d.Trailer)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		collect(d.Objects[id])
	}
	return seen
}

// PruneObjects removes every object not reachable from the trailer and
// returns the removed ids in ascending order
func (d *Document) PruneObjects() []core.ObjectID {
	reachable := d.Reachable()

	var removed []core.ObjectID
	for _, id := range d.ObjectIDs() {
		if !reachable[id] {
			delete(d.Objects, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// DeleteZeroLengthStreams removes streams with an empty payload and returns
// their ids in ascending order. References to them are left dangling and
// resolve to Null.
func (d *Document) DeleteZeroLengthStreams() []core.ObjectID {
	var removed []core.ObjectID
	for _, id := range d.ObjectIDs() {
		if stream, ok := d.Objects[id].(*core.Stream); ok && len(stream.Data) == 0 {
			delete(d.Objects, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// CompressStreams flate-compresses every unfiltered stream at level (0-9)
func (d *Document) CompressStreams(level int) error {
	for _, id := range d.ObjectIDs() {
		stream, ok := d.Objects[id].(*core.Stream)
		if !ok {
			continue
		}
		if err := stream.Compress(level); err != nil {
			return &core.ReferenceError{ID: id, Err: err}
		}
	}
	return nil
}

// DecompressStreams replaces every decodable stream payload with its decoded
// form. Image streams are left encoded. The ids of streams whose filters
// failed are returned; their payloads are untouched.
func (d *Document) DecompressStreams() []core.ObjectID {
	var failed []core.ObjectID
	for _, id := range d.ObjectIDs() {
		stream, ok := d.Objects[id].(*core.Stream)
		if !ok {
			continue
		}
		if err := stream.Decompress(); err != nil {
			failed = append(failed, id)
		}
	}
	return failed
}
