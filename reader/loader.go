package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/crypt"
	"github.com/tsawler/pdfgraph/document"
	"github.com/tsawler/pdfgraph/logging"
)

var versionPattern = regexp.MustCompile(`^%PDF-(\d+\.\d+)`)

// writerOwnedKeys are trailer entries that describe the file layout rather
// than the document
var writerOwnedKeys = []string{"Prev", "XRefStm", "Encrypt", "Type", "W", "Index", "Filter", "DecodeParms", "Length"}

// Load builds a document from an in-memory file
func Load(data []byte, opts ...Option) (*document.Document, error) {
	return LoadContext(context.Background(), data, opts...)
}

// LoadContext is Load with cancellation. The context is checked between
// objects.
func LoadContext(ctx context.Context, data []byte, opts ...Option) (*document.Document, error) {
	l := &loader{cfg: newConfig(opts), log: logging.For("reader")}
	return l.load(ctx, data)
}

// LoadReader reads r to the end and loads the result
func LoadReader(r io.Reader, opts ...Option) (*document.Document, error) {
	return LoadReaderContext(context.Background(), r, opts...)
}

// LoadReaderContext is LoadReader with cancellation
func LoadReaderContext(ctx context.Context, r io.Reader, opts ...Option) (*document.Document, error) {
	data, err := readAll(ctx, r)
	if err != nil {
		return nil, err
	}
	return LoadContext(ctx, data, opts...)
}

// readAll buffers r, stopping early when ctx is cancelled
func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
	}
}

type loader struct {
	cfg *config
	log *slog.Logger
}

// parsed is the result slot of one parse job
type parsed struct {
	id  core.ObjectID
	obj core.Object
	err error
}

// header finds the %PDF- header and returns the file from there, the
// version and the binary mark
func header(data []byte) ([]byte, string, []byte, error) {
	start := bytes.Index(data, []byte("%PDF-"))
	if start < 0 {
		return nil, "", nil, core.ErrInvalidHeader
	}
	data = data[start:]

	m := versionPattern.FindSubmatch(data)
	if m == nil {
		return nil, "", nil, fmt.Errorf("%w: unreadable version", core.ErrInvalidHeader)
	}
	return data, string(m[1]), binaryMark(data), nil
}

// binaryMark returns the bytes of a comment on the second line when they
// are all 128 or above
func binaryMark(data []byte) []byte {
	eol := bytes.IndexAny(data, "\r\n")
	if eol < 0 {
		return nil
	}
	rest := data[eol:]
	rest = bytes.TrimLeft(rest, "\r\n")
	if len(rest) == 0 || rest[0] != '%' {
		return nil
	}
	rest = rest[1:]
	end := bytes.IndexAny(rest, "\r\n")
	if end <= 0 {
		return nil
	}
	for _, b := range rest[:end] {
		if b < 128 {
			return nil
		}
	}
	return append([]byte(nil), rest[:end]...)
}

func (l *loader) load(ctx context.Context, data []byte) (*document.Document, error) {
	data, version, mark, err := header(data)
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
	state, encryptID, err := l.setupEncryption(source)
	if err != nil {
		return nil, err
	}
	source.state = state

	results, err := l.parseDirect(ctx, source, encryptID)
	if err != nil {
		return nil, err
	}

	doc := document.WithVersion(version)
	doc.BinaryMark = mark

	var containers []parsed
	for _, r := range results {
		if r.err != nil {
			l.log.Warn("skipping object", "id", r.id, "error", r.err)
			continue
		}
		obj, keep := l.filter(r.id, r.obj)
		if !keep {
			continue
		}
		if stream, ok := obj.(*core.Stream); ok {
			switch {
			case stream.Dict.HasType("ObjStm"):
				containers = append(containers, parsed{id: r.id, obj: stream})
				continue
			case stream.Dict.HasType("XRef"):
				continue
			}
		}
		doc.Objects[r.id] = obj
	}

	if err := l.expandContainers(ctx, doc, table, containers); err != nil {
		return nil, err
	}

	doc.Trailer = table.Trailer.Clone()
	for _, key := range writerOwnedKeys {
		doc.Trailer.Delete(key)
	}

	doc.MaxID = table.MaxID()
	for id := range doc.Objects {
		doc.MaxID = max(doc.MaxID, id.Number)
	}
	want := core.Int(doc.MaxID + 1)
	if size, ok := doc.Trailer.GetInt("Size"); !ok || size != want {
		l.log.Warn("correcting trailer Size", "declared", doc.Trailer.Get("Size"), "actual", want)
	}
	doc.Trailer.Set("Size", want)

	if state != nil {
		doc.SetLoadedEncryption(state)
	}

	l.log.Debug("document loaded",
		"version", version,
		"objects", doc.Len(),
		"object_streams", len(containers),
		"recovered", recovered,
		"encrypted", state != nil)
	return doc, nil
}

func (l *loader) filter(id core.ObjectID, obj core.Object) (core.Object, bool) {
	if l.cfg.filter == nil {
		return obj, true
	}
	return l.cfg.filter(id, obj)
}

// setupEncryption authenticates against the trailer's Encrypt dictionary.
// The configured password is tried first, then the empty password.
func (l *loader) setupEncryption(source *objectSource) (*crypt.State, *core.ObjectID, error) {
	encrypt := source.table.Trailer.Get("Encrypt")
	if encrypt == nil {
		return nil, nil, nil
	}

	var dict *core.Dict
	var encryptID *core.ObjectID
	switch v := encrypt.(type) {
	case *core.Dict:
		dict = v
	case core.IndirectRef:
		id := v.ID()
		encryptID = &id
		obj, err := source.GetObject(id)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", crypt.ErrMissingEncryptionDictionary, err)
		}
		d, ok := obj.(*core.Dict)
		if !ok {
			return nil, nil, fmt.Errorf("%w: Encrypt is %T", crypt.ErrMissingEncryptionDictionary, obj)
		}
		dict = d
	default:
		return nil, nil, fmt.Errorf("%w: Encrypt is %T", crypt.ErrMissingEncryptionDictionary, encrypt)
	}

	var fileID []byte
	if ids, ok := source.table.Trailer.GetArray("ID"); ok {
		if first, ok := ids.GetString(0); ok {
			fileID = first.Value
		}
	}

	state, err := crypt.NewState(dict, fileID, l.cfg.password)
	if errors.Is(err, crypt.ErrWrongPassword) && l.cfg.password != "" {
		state, err = crypt.NewState(dict, fileID, "")
	}
	if err != nil {
		return nil, nil, err
	}
	return state, encryptID, nil
}

// parseDirect parses every object stored at a file offset. Each job writes
// only its own slot, so the slots can be filled concurrently and read after
// Wait.
func (l *loader) parseDirect(ctx context.Context, source *objectSource, skip *core.ObjectID) ([]parsed, error) {
	var offsets []uint32
	for _, num := range source.table.Numbers() {
		entry := source.table.Entries[num]
		if entry.Type != core.XRefInUse {
			continue
		}
		if skip != nil && skip.Number == num {
			continue
		}
		offsets = append(offsets, num)
	}

	results := make([]parsed, len(offsets))
	job := func(i int) {
		num := offsets[i]
		entry := source.table.Entries[num]
		id := core.ObjectID{Number: num, Generation: entry.Generation}
		obj, err := source.GetObject(id)
		results[i] = parsed{id: id, obj: obj, err: err}
	}

	if l.cfg.workers <= 1 {
		for i := range offsets {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			job(i)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.workers)
	for i := range offsets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			job(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// expandContainers decodes the object streams and adds the members whose
// authoritative cross-reference entry points into them, directly or through
// the named stream's Extends chain. Members are already plaintext once their
// container has been decrypted.
func (l *loader) expandContainers(ctx context.Context, doc *document.Document, table *core.XRefTable, containers []parsed) error {
	sort.Slice(containers, func(i, j int) bool { return containers[i].id.Less(containers[j].id) })

	decoded := make([]*container, len(containers))
	errs := make([]error, len(containers))
	decode := func(i int) {
		decoded[i], errs[i] = decodeContainer(containers[i].obj.(*core.Stream))
	}

	if l.cfg.workers <= 1 {
		for i := range containers {
			if err := ctx.Err(); err != nil {
				return err
			}
			decode(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(l.cfg.workers)
		for i := range containers {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				decode(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	byNumber := make(map[uint32]*container, len(containers))
	for i, c := range containers {
		if errs[i] != nil {
			l.log.Warn("skipping object stream", "id", c.id, "error", errs[i])
			continue
		}
		byNumber[c.id.Number] = decoded[i]
	}

	for i, c := range containers {
		if errs[i] != nil {
			continue
		}
		for num, err := range decoded[i].failed {
			l.log.Warn("skipping object stream member", "id", num, "container", c.id, "error", err)
		}

		nums := make([]uint32, 0, len(decoded[i].objects))
		for num := range decoded[i].objects {
			nums = append(nums, num)
		}
		sort.Slice(nums, func(a, b int) bool { return nums[a] < nums[b] })

		for _, num := range nums {
			entry, ok := table.Get(num)
			if !ok || entry.Type != core.XRefCompressed || owner(byNumber, entry.Container, num) != c.id.Number {
				continue
			}
			id := core.ObjectID{Number: num}
			if _, exists := doc.Objects[id]; exists {
				continue
			}
			obj, keep := l.filter(id, decoded[i].objects[num])
			if !keep {
				continue
			}
			doc.Objects[id] = obj
		}
	}
	return nil
}

// owner returns the container that holds num when the index names start:
// start itself, or the first stream along its Extends chain that stores num.
// It returns 0 when no loaded container does.
func owner(containers map[uint32]*container, start, num uint32) uint32 {
	seen := make(map[uint32]bool)
	for n := start; n != 0 && !seen[n]; {
		seen[n] = true
		c, ok := containers[n]
		if !ok {
			return 0
		}
		if _, ok := c.objects[num]; ok {
			return n
		}
		n = c.extends
	}
	return 0
}
