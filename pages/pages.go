package pages

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// maxTreeDepth bounds page tree nesting. Real files rarely exceed a handful
// of levels.
const maxTreeDepth = 256

// ObjectResolver follows indirect references. *resolver.Resolver implements
// it.
type ObjectResolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// Catalog represents the document catalog (root of document structure)
type Catalog struct {
	dict     *core.Dict
	resolver ObjectResolver
}

// NewCatalog creates a new catalog from a dictionary
func NewCatalog(dict *core.Dict, resolver ObjectResolver) *Catalog {
	return &Catalog{dict: dict, resolver: resolver}
}

// Dict returns the catalog dictionary
func (c *Catalog) Dict() *core.Dict {
	return c.dict
}

// Type returns the catalog type (should be "Catalog")
func (c *Catalog) Type() string {
	name, _ := c.dict.GetName("Type")
	return string(name)
}

// Version returns the /Version entry if present. It overrides the header
// version when newer.
func (c *Catalog) Version() string {
	name, _ := c.dict.GetName("Version")
	return string(name)
}

// PageTree returns the page tree rooted at /Pages. A missing or malformed
// entry is reported as a *core.StructuralError wrapping core.ErrMissingPages.
func (c *Catalog) PageTree() (*PageTree, error) {
	pagesObj := c.dict.Get("Pages")
	if pagesObj == nil {
		return nil, &core.StructuralError{Op: "page tree", Err: core.ErrMissingPages}
	}

	resolved, err := c.resolver.Resolve(pagesObj)
	if err != nil {
		return nil, &core.StructuralError{Op: "page tree", Err: fmt.Errorf("%w: %w", core.ErrMissingPages, err)}
	}

	root, ok := resolved.(*core.Dict)
	if !ok {
		return nil, &core.StructuralError{Op: "page tree", Err: fmt.Errorf("%w: /Pages is %T", core.ErrMissingPages, resolved)}
	}

	var rootID *core.ObjectID
	if ref, ok := pagesObj.(core.IndirectRef); ok {
		id := ref.ID()
		rootID = &id
	}
	return &PageTree{root: root, rootID: rootID, resolver: c.resolver}, nil
}

// Metadata returns the XMP metadata stream if present
func (c *Catalog) Metadata() (*core.Stream, error) {
	metadataObj := c.dict.Get("Metadata")
	if metadataObj == nil {
		return nil, nil
	}

	resolved, err := c.resolver.Resolve(metadataObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Metadata: %w", err)
	}

	stream, ok := resolved.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("invalid /Metadata type: %T", resolved)
	}
	return stream, nil
}

// PageTree represents the page tree
type PageTree struct {
	root     *core.Dict
	rootID   *core.ObjectID
	resolver ObjectResolver
	pages    []*Page // flattened, loaded on first use
}

// NewPageTree creates a page tree from the root /Pages dictionary
func NewPageTree(root *core.Dict, resolver ObjectResolver) *PageTree {
	return &PageTree{root: root, resolver: resolver}
}

// Count returns the number of pages. The root /Count is used when it is a
// non-negative integer, otherwise the leaves are counted.
func (t *PageTree) Count() (int, error) {
	if count, ok := t.root.GetInt("Count"); ok && count >= 0 {
		return int(count), nil
	}

	pages, err := t.Pages()
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// GetPage returns the page at the given index (0-based)
func (t *PageTree) GetPage(index int) (*Page, error) {
	pages, err := t.Pages()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(pages))
	}
	return pages[index], nil
}

// Pages returns all leaf pages in document order. A node that appears twice
// on its own ancestor path fails with core.ErrReferenceCycle.
func (t *PageTree) Pages() ([]*Page, error) {
	if t.pages != nil {
		return t.pages, nil
	}

	w := &treeWalker{resolver: t.resolver, onPath: make(map[core.ObjectID]bool)}
	if t.rootID != nil {
		w.onPath[*t.rootID] = true
	}
	if err := w.walk(t.root, nil, 0); err != nil {
		return nil, fmt.Errorf("failed to traverse page tree: %w", err)
	}
	t.pages = w.pages
	return t.pages, nil
}

type treeWalker struct {
	resolver ObjectResolver
	onPath   map[core.ObjectID]bool
	pages    []*Page
}

// walk visits node. ancestors holds the /Pages nodes above it, nearest
// first, for inherited attributes.
func (w *treeWalker) walk(node *core.Dict, ancestors []*core.Dict, depth int) error {
	if depth > maxTreeDepth {
		return core.ErrMaxDepth
	}

	kidsObj := node.Get("Kids")
	if node.HasType("Page") || (kidsObj == nil && !node.HasType("Pages")) {
		w.pages = append(w.pages, &Page{dict: node, ancestors: ancestors, resolver: w.resolver})
		return nil
	}
	if kidsObj == nil {
		return fmt.Errorf("Pages node missing /Kids entry")
	}

	kidsResolved, err := w.resolver.Resolve(kidsObj)
	if err != nil {
		return fmt.Errorf("failed to resolve /Kids: %w", err)
	}
	kids, ok := kidsResolved.(core.Array)
	if !ok {
		return fmt.Errorf("invalid /Kids type: %T", kidsResolved)
	}

	path := make([]*core.Dict, 0, len(ancestors)+1)
	path = append(path, node)
	path = append(path, ancestors...)

	for i, kidObj := range kids {
		ref, isRef := kidObj.(core.IndirectRef)
		if isRef {
			if w.onPath[ref.ID()] {
				return &core.ReferenceError{ID: ref.ID(), Err: core.ErrReferenceCycle}
			}
			w.onPath[ref.ID()] = true
		}

		kidResolved, err := w.resolver.Resolve(kidObj)
		if err != nil {
			return fmt.Errorf("failed to resolve kid %d: %w", i, err)
		}
		kid, ok := kidResolved.(*core.Dict)
		if !ok {
			return fmt.Errorf("invalid kid type: %T", kidResolved)
		}
		if err := w.walk(kid, path, depth+1); err != nil {
			return err
		}

		if isRef {
			delete(w.onPath, ref.ID())
		}
	}
	return nil
}

// Page represents a single page
type Page struct {
	dict      *core.Dict
	ancestors []*core.Dict
	resolver  ObjectResolver
}

// Dict returns the page dictionary
func (p *Page) Dict() *core.Dict {
	return p.dict
}

// Inherited looks key up on the page and then on each ancestor node
func (p *Page) Inherited(key string) core.Object {
	if v := p.dict.Get(key); v != nil {
		return v
	}
	for _, node := range p.ancestors {
		if v := node.Get(key); v != nil {
			return v
		}
	}
	return nil
}

// MediaBox returns the page media box [x1 y1 x2 y2]
func (p *Page) MediaBox() ([]float64, error) {
	boxObj := p.Inherited("MediaBox")
	if boxObj == nil {
		return nil, fmt.Errorf("MediaBox not found")
	}

	resolved, err := p.resolver.Resolve(boxObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve MediaBox: %w", err)
	}
	arr, ok := resolved.(core.Array)
	if !ok || len(arr) != 4 {
		return nil, fmt.Errorf("invalid MediaBox: %v", resolved)
	}

	box := make([]float64, 4)
	for i, elem := range arr {
		switch v := elem.(type) {
		case core.Int:
			box[i] = float64(v)
		case core.Real:
			box[i] = float64(v)
		default:
			return nil, fmt.Errorf("invalid MediaBox element type: %T", elem)
		}
	}
	return box, nil
}

// Rotate returns the page rotation (0, 90, 180, or 270)
func (p *Page) Rotate() int {
	rotate, ok := p.Inherited("Rotate").(core.Int)
	if !ok {
		return 0
	}
	r := int(rotate) % 360
	if r < 0 {
		r += 360
	}
	return r
}
