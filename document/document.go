package document

import (
	"fmt"
	"sort"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/crypt"
	"github.com/tsawler/pdfgraph/pages"
	"github.com/tsawler/pdfgraph/resolver"
)

// DefaultVersion is the header version of documents built with New
const DefaultVersion = "1.7"

// Document is an object graph keyed by object id, plus the trailer and the
// bookkeeping needed to save it again. A Document is not safe for concurrent
// mutation.
type Document struct {
	// Version is the header version, e.g. "1.7"
	Version string

	// BinaryMark holds the bytes of the comment line that follows the
	// header. Empty means the writer's default mark.
	BinaryMark []byte

	// Trailer holds Root, Info and ID. Size, Prev, XRefStm and Encrypt are
	// managed by the writer and the loader.
	Trailer *core.Dict

	// Objects owns every object in the graph
	Objects map[core.ObjectID]core.Object

	// MaxID is the highest object number in use. Add allocates MaxID+1.
	MaxID uint32

	encryption   *crypt.State // applied on save
	loadedState  *crypt.State // derived while loading
	wasEncrypted bool
}

// New creates an empty document with the default version
func New() *Document {
	return WithVersion(DefaultVersion)
}

// WithVersion creates an empty document with the given header version
func WithVersion(version string) *Document {
	return &Document{
		Version: version,
		Trailer: core.NewDict(),
		Objects: make(map[core.ObjectID]core.Object),
	}
}

// GetObject returns the object stored under id. A missing id is reported as
// a *core.ReferenceError wrapping core.ErrObjectNotFound.
func (d *Document) GetObject(id core.ObjectID) (core.Object, error) {
	obj, ok := d.Objects[id]
	if !ok {
		return nil, &core.ReferenceError{ID: id, Err: core.ErrObjectNotFound}
	}
	return obj, nil
}

// Get returns the object stored under id
func (d *Document) Get(id core.ObjectID) (core.Object, bool) {
	obj, ok := d.Objects[id]
	return obj, ok
}

// Set stores obj under id, replacing any previous value
func (d *Document) Set(id core.ObjectID, obj core.Object) {
	d.Objects[id] = obj
	if id.Number > d.MaxID {
		d.MaxID = id.Number
	}
}

// Remove deletes the object stored under id and returns it. Removing an
// absent id is a no-op.
func (d *Document) Remove(id core.ObjectID) core.Object {
	obj, ok := d.Objects[id]
	if !ok {
		return nil
	}
	delete(d.Objects, id)
	return obj
}

// Add stores obj under a fresh id and returns a reference to it
func (d *Document) Add(obj core.Object) core.IndirectRef {
	d.MaxID++
	id := core.ObjectID{Number: d.MaxID}
	d.Objects[id] = obj
	return core.IndirectRef(id)
}

// Len returns the number of objects
func (d *Document) Len() int {
	return len(d.Objects)
}

// ObjectIDs returns every id in ascending order
func (d *Document) ObjectIDs() []core.ObjectID {
	ids := make([]core.ObjectID, 0, len(d.Objects))
	for id := range d.Objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// Range calls fn for every object in ascending id order until fn returns
// false
func (d *Document) Range(fn func(id core.ObjectID, obj core.Object) bool) {
	for _, id := range d.ObjectIDs() {
		if !fn(id, d.Objects[id]) {
			return
		}
	}
}

// Resolver returns a resolver over this document
func (d *Document) Resolver(opts ...resolver.Option) *resolver.Resolver {
	return resolver.New(d, opts...)
}

// Dereference follows obj through any chain of references. Cycles fail with
// core.ErrReferenceCycle and chains longer than resolver.DefaultMaxDepth
// with core.ErrMaxDepth.
func (d *Document) Dereference(obj core.Object) (core.Object, error) {
	return resolver.New(d).Resolve(obj)
}

// Catalog returns the dictionary named by the trailer's Root
func (d *Document) Catalog() (*core.Dict, error) {
	root := d.Trailer.Get("Root")
	if root == nil {
		return nil, &core.StructuralError{Op: "catalog", Err: core.ErrMissingRoot}
	}
	dict, err := resolver.New(d).ResolveDict(root)
	if err != nil {
		return nil, &core.StructuralError{Op: "catalog", Err: fmt.Errorf("%w: %w", core.ErrMissingRoot, err)}
	}
	return dict, nil
}

// Info returns the document information dictionary, or nil when the trailer
// has none
func (d *Document) Info() (*core.Dict, error) {
	info := d.Trailer.Get("Info")
	if info == nil {
		return nil, nil
	}
	dict, err := resolver.New(d).ResolveDict(info)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Info: %w", err)
	}
	return dict, nil
}

// PageCount returns the number of pages in the page tree
func (d *Document) PageCount() (int, error) {
	catalog, err := d.Catalog()
	if err != nil {
		return 0, err
	}
	tree, err := pages.NewCatalog(catalog, resolver.New(d)).PageTree()
	if err != nil {
		return 0, err
	}
	return tree.Count()
}

// Encrypt makes the writer encrypt the document with state on save.
// Passing nil writes plaintext.
func (d *Document) Encrypt(state *crypt.State) {
	d.encryption = state
}

// IsEncrypted reports whether the document will be encrypted on save
func (d *Document) IsEncrypted() bool {
	return d.encryption != nil
}

// Encryption returns the state applied on save, or nil
func (d *Document) Encryption() *crypt.State {
	return d.encryption
}

// WasEncrypted reports whether the document was encrypted when loaded. Its
// objects are held decrypted either way.
func (d *Document) WasEncrypted() bool {
	return d.wasEncrypted
}

// EncryptionState returns the state derived while loading an encrypted
// document, or nil. Passing it to Encrypt saves the document with its
// original keys.
func (d *Document) EncryptionState() *crypt.State {
	return d.loadedState
}

// SetLoadedEncryption records the state a loader decrypted the document with
func (d *Document) SetLoadedEncryption(state *crypt.State) {
	d.loadedState = state
	d.wasEncrypted = state != nil
}
