package writer

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/crypt"
	"github.com/tsawler/pdfgraph/document"
	"github.com/tsawler/pdfgraph/logging"
)

// defaultBinaryMark follows the header so transfer tools treat the file as
// binary
var defaultBinaryMark = []byte{0xE2, 0xE3, 0xCF, 0xD3}

// Writer serializes one document. It works on copies, so the document is
// left unchanged.
type Writer struct {
	doc  *document.Document
	opts Options
	out  *countingWriter

	objects   map[core.ObjectID]core.Object
	order     []core.ObjectID
	locations map[uint32]core.XRefEntry // where each number ended up
	nextNum   uint32
	trailer   *core.Dict
}

// Write serializes doc to w
func Write(w io.Writer, doc *document.Document, opts Options) error {
	opts, err := opts.normalize()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	wr := &Writer{
		doc:       doc,
		opts:      opts,
		out:       &countingWriter{w: bw},
		objects:   make(map[core.ObjectID]core.Object, len(doc.Objects)),
		locations: make(map[uint32]core.XRefEntry),
	}
	if err := wr.write(); err != nil {
		return err
	}
	return bw.Flush()
}

// Bytes serializes doc into memory
func Bytes(doc *document.Document, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes doc in classic form
func Save(w io.Writer, doc *document.Document) error {
	return Write(w, doc, DefaultOptions())
}

// SaveModern writes doc with object streams and a cross-reference stream
func SaveModern(w io.Writer, doc *document.Document) error {
	return Write(w, doc, ModernOptions())
}

// WriteFile serializes doc to a new file at path
func WriteFile(path string, doc *document.Document, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(f, doc, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) write() error {
	log := logging.For("writer")

	if err := w.prepare(); err != nil {
		return err
	}

	state := w.doc.Encryption()
	var encryptRef *core.IndirectRef
	if state != nil {
		ref := w.allocate()
		encryptRef = &ref
	}

	// Pick the packed members before encryption: they are stored in
	// plaintext inside an encrypted container.
	var direct []core.ObjectID
	var packable []core.ObjectID
	for _, id := range w.order {
		if w.opts.UseObjectStreams && eligibleForPacking(id, w.objects[id]) {
			packable = append(packable, id)
		} else {
			direct = append(direct, id)
		}
	}

	if state != nil {
		for _, id := range direct {
			obj, err := state.EncryptObject(id, w.objects[id])
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}
			w.objects[id] = obj
		}
	}

	version, err := outputVersion(w.doc.Version, w.opts, state)
	if err != nil {
		return err
	}
	if err := w.writeHeader(version); err != nil {
		return err
	}

	for _, id := range direct {
		if err := w.writeIndirect(id, w.objects[id]); err != nil {
			return err
		}
	}

	if encryptRef != nil {
		if err := w.writeIndirect(encryptRef.ID(), state.Dict()); err != nil {
			return err
		}
	}

	containers := packObjects(packable, w.objects, w.opts.MaxObjectsPerStream)
	for _, c := range containers {
		ref := w.allocate()
		if err := c.Stream.Compress(w.opts.CompressionLevel); err != nil {
			return fmt.Errorf("compress object stream: %w", err)
		}
		if state != nil {
			if _, err := state.EncryptObject(ref.ID(), c.Stream); err != nil {
				return fmt.Errorf("encrypt object stream: %w", err)
			}
		}
		if err := w.writeIndirect(ref.ID(), c.Stream); err != nil {
			return err
		}
		for i, member := range c.Members {
			w.locations[member.Number] = core.XRefEntry{
				Type:      core.XRefCompressed,
				Container: ref.Number,
				Index:     i,
			}
		}
	}

	w.buildTrailer(encryptRef, state)

	var xrefOffset int64
	if w.opts.UseXRefStreams {
		xrefOffset, err = w.writeXRefStream()
	} else {
		xrefOffset, err = w.writeXRefTable()
	}
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w.out, "startxref\n%d\n%%%%EOF\n", xrefOffset); err != nil {
		return err
	}

	log.Debug("document written",
		"objects", len(w.order),
		"object_streams", len(containers),
		"bytes", w.out.n,
		"encrypted", state != nil)
	return nil
}

// prepare copies the objects, recomputes stream lengths and applies
// requested compression
func (w *Writer) prepare() error {
	w.order = w.doc.ObjectIDs()

	var prev core.ObjectID
	for i, id := range w.order {
		if id.Number == 0 {
			return fmt.Errorf("object number 0 is reserved")
		}
		if i > 0 && prev.Number == id.Number {
			return fmt.Errorf("object %d has more than one generation", id.Number)
		}
		prev = id

		obj := core.Copy(w.doc.Objects[id])
		if stream, ok := obj.(*core.Stream); ok {
			if stream.WantsCompression() {
				if err := stream.Compress(w.opts.CompressionLevel); err != nil {
					return fmt.Errorf("compress object %v: %w", id, err)
				}
			}
			stream.Dict.Set("Length", core.Int(len(stream.Data)))
		}
		w.objects[id] = obj
	}

	w.nextNum = w.doc.MaxID
	if n := len(w.order); n > 0 && w.order[n-1].Number > w.nextNum {
		w.nextNum = w.order[n-1].Number
	}
	return nil
}

// allocate returns a number after every document object
func (w *Writer) allocate() core.IndirectRef {
	w.nextNum++
	return core.Ref(w.nextNum, 0)
}

func (w *Writer) writeHeader(version string) error {
	mark := w.doc.BinaryMark
	if len(mark) == 0 {
		mark = defaultBinaryMark
	}
	if _, err := fmt.Fprintf(w.out, "%%PDF-%s\n%%", version); err != nil {
		return err
	}
	if _, err := w.out.Write(mark); err != nil {
		return err
	}
	_, err := w.out.Write([]byte{'\n'})
	return err
}

func (w *Writer) writeIndirect(id core.ObjectID, obj core.Object) error {
	w.locations[id.Number] = core.XRefEntry{
		Type:       core.XRefInUse,
		Offset:     w.out.n,
		Generation: id.Generation,
	}

	if _, err := fmt.Fprintf(w.out, "%d %d obj\n", id.Number, id.Generation); err != nil {
		return err
	}
	if _, err := w.out.Write(Serialize(obj)); err != nil {
		return err
	}
	_, err := io.WriteString(w.out, "\nendobj\n")
	return err
}

// buildTrailer copies the document trailer and replaces the entries the
// writer owns
func (w *Writer) buildTrailer(encryptRef *core.IndirectRef, state *crypt.State) {
	t := w.doc.Trailer.Clone()
	for _, key := range []string{"Size", "Prev", "XRefStm", "Encrypt", "Type", "W", "Index", "Filter", "DecodeParms", "Length"} {
		t.Delete(key)
	}

	if state != nil {
		id := core.NewHexString(state.FileID())
		t.Set("Encrypt", *encryptRef)
		t.Set("ID", core.Array{id, id})
	} else if !t.Has("ID") {
		t.Set("ID", w.fileID())
	}
	w.trailer = t
}

// fileID derives a stable identifier from the serialized trailer so equal
// documents get equal ids
func (w *Writer) fileID() core.Array {
	h := md5.New()
	h.Write(Serialize(w.doc.Trailer))
	h.Write([]byte(strconv.Itoa(len(w.order))))
	sum := h.Sum(nil)
	return core.Array{core.NewHexString(sum), core.NewHexString(sum)}
}

// countingWriter tracks the output offset
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
