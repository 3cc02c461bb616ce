package writer

import (
	"bytes"
	"fmt"

	"github.com/blang/semver"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/crypt"
	"github.com/tsawler/pdfgraph/document"
)

// freeListHead is the generation of the head of the free list
const freeListHead = 65535

// freeNumbers returns the numbers below size without a location, ascending
func (w *Writer) freeNumbers(size uint32) []uint32 {
	var free []uint32
	for num := uint32(1); num < size; num++ {
		if _, ok := w.locations[num]; !ok {
			free = append(free, num)
		}
	}
	return free
}

// entries returns one entry per number below size. Free entries form a
// linked list starting at entry 0.
func (w *Writer) entries(size uint32) []core.XRefEntry {
	free := w.freeNumbers(size)
	out := make([]core.XRefEntry, size)

	head := core.XRefEntry{Type: core.XRefFree, Generation: freeListHead}
	if len(free) > 0 {
		head.Offset = int64(free[0])
	}
	out[0] = head

	for i, num := range free {
		var next int64
		if i+1 < len(free) {
			next = int64(free[i+1])
		}
		out[num] = core.XRefEntry{Type: core.XRefFree, Offset: next}
	}
	for num, entry := range w.locations {
		if num < size {
			out[num] = entry
		}
	}
	return out
}

func (w *Writer) writeXRefTable() (int64, error) {
	offset := w.out.n
	size := w.nextNum + 1

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	for _, entry := range w.entries(size) {
		flag := byte('n')
		if entry.Type == core.XRefFree {
			flag = 'f'
		}
		fmt.Fprintf(&buf, "%010d %05d %c \n", entry.Offset, entry.Generation, flag)
	}

	w.trailer.Set("Size", core.Int(size))
	buf.WriteString("trailer\n")
	buf.Write(Serialize(w.trailer))
	buf.WriteByte('\n')

	_, err := w.out.Write(buf.Bytes())
	return offset, err
}

// writeXRefStream writes a cross-reference stream that also indexes itself
func (w *Writer) writeXRefStream() (int64, error) {
	ref := w.allocate()
	offset := w.out.n
	w.locations[ref.Number] = core.XRefEntry{Type: core.XRefInUse, Offset: offset}
	size := w.nextNum + 1

	entries := w.entries(size)
	var max2, max3 uint64
	for _, e := range entries {
		f2, f3 := entryFields(e)
		max2 = max(max2, f2)
		max3 = max(max3, f3)
	}
	w2, w3 := byteWidth(max2), byteWidth(max3)

	data := make([]byte, 0, len(entries)*(1+w2+w3))
	for _, e := range entries {
		f2, f3 := entryFields(e)
		data = append(data, byte(e.Type))
		data = appendBigEndian(data, f2, w2)
		data = appendBigEndian(data, f3, w3)
	}

	dict := w.trailer.Clone()
	dict.Set("Type", core.Name("XRef"))
	dict.Set("Size", core.Int(size))
	dict.Set("W", core.Array{core.Int(1), core.Int(w2), core.Int(w3)})

	stream := core.NewStream(dict, data)
	if err := stream.Compress(w.opts.CompressionLevel); err != nil {
		return 0, fmt.Errorf("compress xref stream: %w", err)
	}
	return offset, w.writeIndirect(ref.ID(), stream)
}

// entryFields returns the second and third field of a stream record
func entryFields(e core.XRefEntry) (uint64, uint64) {
	switch e.Type {
	case core.XRefCompressed:
		return uint64(e.Container), uint64(e.Index)
	default:
		return uint64(e.Offset), uint64(e.Generation)
	}
}

// byteWidth returns the bytes needed to hold v, at least one
func byteWidth(v uint64) int {
	n := 1
	for v > 0xFF {
		v >>= 8
		n++
	}
	return n
}

func appendBigEndian(dst []byte, v uint64, width int) []byte {
	for i := width - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(8*uint(i))))
	}
	return dst
}

// outputVersion raises the header version to what the chosen features need:
// 1.5 for cross-reference and object streams, and the version that
// introduced the security handler revision in use
func outputVersion(version string, opts Options, state *crypt.State) (string, error) {
	if version == "" {
		version = document.DefaultVersion
	}
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", version, err)
	}

	required := semver.Version{Major: 1, Minor: 0}
	if opts.UseXRefStreams {
		required = semver.Version{Major: 1, Minor: 5}
	}
	if state != nil {
		var minor uint64
		switch r := state.Revision(); {
		case r >= 5:
			minor = 7
		case r == 4:
			minor = 6
		case r == 3:
			minor = 4
		default:
			minor = 1
		}
		if need := (semver.Version{Major: 1, Minor: minor}); need.GT(required) {
			required = need
		}
	}

	if v.LT(required) {
		v = required
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor), nil
}
