package writer

import (
	"bytes"
	"strconv"

	"github.com/tsawler/pdfgraph/core"
)

// packedStream is one object stream built by the packer
type packedStream struct {
	Members []core.ObjectID
	Stream  *core.Stream
}

// eligibleForPacking reports whether an object may live inside an object
// stream. Streams cannot, and neither can objects with a non-zero
// generation since compressed entries carry none.
func eligibleForPacking(id core.ObjectID, obj core.Object) bool {
	if id.Generation != 0 {
		return false
	}
	_, isStream := obj.(*core.Stream)
	return !isStream
}

// packObjects splits members, in the order given, into object streams of at
// most maxPerStream objects each. Payloads are left unfiltered; the caller
// compresses them.
func packObjects(ids []core.ObjectID, objects map[core.ObjectID]core.Object, maxPerStream int) []packedStream {
	if maxPerStream <= 0 {
		maxPerStream = DefaultMaxObjectsPerStream
	}

	var out []packedStream
	for start := 0; start < len(ids); start += maxPerStream {
		end := min(start+maxPerStream, len(ids))
		out = append(out, buildObjectStream(ids[start:end], objects))
	}
	return out
}

// buildObjectStream lays out the index of "number offset" pairs followed by
// the serialized members, one per line
func buildObjectStream(ids []core.ObjectID, objects map[core.ObjectID]core.Object) packedStream {
	var header, body bytes.Buffer
	for i, id := range ids {
		if i > 0 {
			header.WriteByte(' ')
		}
		header.WriteString(strconv.FormatUint(uint64(id.Number), 10))
		header.WriteByte(' ')
		header.WriteString(strconv.Itoa(body.Len()))

		writeValue(&body, objects[id])
		body.WriteByte('\n')
	}
	header.WriteByte('\n')

	data := make([]byte, 0, header.Len()+body.Len())
	data = append(data, header.Bytes()...)
	data = append(data, body.Bytes()...)

	dict := core.DictOf(
		"Type", core.Name("ObjStm"),
		"N", core.Int(len(ids)),
		"First", core.Int(header.Len()),
		"Length", core.Int(len(data)),
	)
	return packedStream{
		Members: append([]core.ObjectID(nil), ids...),
		Stream:  core.NewStream(dict, data),
	}
}
