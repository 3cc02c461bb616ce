package reader

import (
	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/logging"
	"github.com/tsawler/pdfgraph/pages"
	"github.com/tsawler/pdfgraph/resolver"
)

// Metadata is the document information that can be read without loading
// every object. Absent Info entries are empty strings.
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate string // raw PDF date, D:YYYYMMDDHHmmSSOHH'mm'
	ModDate      string
	PageCount    int
	Version      string
}

// LoadMetadata reads the Info dictionary and the page count. Only the
// objects on those paths are parsed.
func LoadMetadata(data []byte, opts ...Option) (*Metadata, error) {
	l := &loader{cfg: newConfig(opts), log: logging.For("reader")}

	data, version, _, err := header(data)
	if err != nil {
		return nil, err
	}
	table, recovered, err := core.ResolveXRef(data)
	if err != nil {
		return nil, err
	}
	if recovered {
		l.log.Warn("cross-reference data unusable, rebuilt by scanning", "objects", table.Size())
	}

	source := newObjectSource(data, table, l.cfg.cacheSize)
	state, _, err := l.setupEncryption(source)
	if err != nil {
		return nil, err
	}
	source.state = state

	r := resolver.New(source)
	meta := &Metadata{Version: version}

	if info, err := r.ResolveDict(table.Trailer.Get("Info")); err == nil && info != nil {
		meta.Title = infoString(r, info, "Title")
		meta.Author = infoString(r, info, "Author")
		meta.Subject = infoString(r, info, "Subject")
		meta.Keywords = infoString(r, info, "Keywords")
		meta.Creator = infoString(r, info, "Creator")
		meta.Producer = infoString(r, info, "Producer")
		meta.CreationDate = infoString(r, info, "CreationDate")
		meta.ModDate = infoString(r, info, "ModDate")
	}

	root, err := r.ResolveDict(table.Trailer.Get("Root"))
	if err != nil || root == nil {
		return nil, &core.StructuralError{Op: "metadata", Err: core.ErrMissingRoot}
	}
	tree, err := pages.NewCatalog(root, r).PageTree()
	if err != nil {
		return nil, err
	}
	count, err := tree.Count()
	if err != nil {
		return nil, err
	}
	meta.PageCount = count
	return meta, nil
}

// LoadMetadataFile is LoadMetadata for a file on disk
func LoadMetadataFile(filename string, opts ...Option) (*Metadata, error) {
	f, err := Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadMetadata(f.Bytes(), opts...)
}

func infoString(r *resolver.Resolver, info *core.Dict, key string) string {
	s, ok := r.ResolveOrNull(info.Get(key)).(core.String)
	if !ok {
		return ""
	}
	return core.DecodeTextString(s)
}
