package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/crypt"
)

func id(num uint32) core.ObjectID {
	return core.ObjectID{Number: num}
}

// simpleDocument builds catalog, page tree, one page and a content stream
func simpleDocument(t *testing.T) *Document {
	t.Helper()

	doc := New()
	tree := core.DictOf(
		"Type", core.Name("Pages"),
		"Count", core.Int(1),
		"MediaBox", core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)},
	)
	pagesRef := doc.Add(tree)
	content := doc.Add(core.NewStream(nil, []byte("BT /F1 12 Tf (Hello) Tj ET")))
	page := doc.Add(core.DictOf(
		"Type", core.Name("Page"),
		"Parent", pagesRef,
		"Contents", content,
	))
	tree.Set("Kids", core.Array{page})
	catalog := doc.Add(core.DictOf("Type", core.Name("Catalog"), "Pages", pagesRef))
	info := doc.Add(core.DictOf("Title", core.NewString("Test")))
	doc.Trailer.Set("Root", catalog)
	doc.Trailer.Set("Info", info)
	return doc
}

func TestNewDocument(t *testing.T) {
	doc := New()
	assert.Equal(t, DefaultVersion, doc.Version)
	assert.Zero(t, doc.MaxID)
	assert.Zero(t, doc.Len())
	assert.False(t, doc.IsEncrypted())
	assert.False(t, doc.WasEncrypted())

	assert.Equal(t, "1.4", WithVersion("1.4").Version)
}

func TestAddSetRemove(t *testing.T) {
	doc := New()

	ref := doc.Add(core.Int(1))
	assert.Equal(t, core.Ref(1, 0), ref)
	ref = doc.Add(core.Int(2))
	assert.Equal(t, core.Ref(2, 0), ref)
	assert.Equal(t, uint32(2), doc.MaxID)

	doc.Set(id(10), core.Name("X"))
	assert.Equal(t, uint32(10), doc.MaxID)
	assert.Equal(t, core.Ref(11, 0), doc.Add(core.Null{}))

	obj, ok := doc.Get(id(10))
	require.True(t, ok)
	assert.Equal(t, core.Name("X"), obj)

	doc.Set(id(10), core.Name("Y"))
	obj, _ = doc.Get(id(10))
	assert.Equal(t, core.Name("Y"), obj)

	assert.Equal(t, core.Name("Y"), doc.Remove(id(10)))
	assert.Nil(t, doc.Remove(id(10)))
	_, ok = doc.Get(id(10))
	assert.False(t, ok)

	_, err := doc.GetObject(id(10))
	assert.ErrorIs(t, err, core.ErrObjectNotFound)
}

func TestObjectIDsOrder(t *testing.T) {
	doc := New()
	doc.Set(core.ObjectID{Number: 5, Generation: 1}, core.Int(0))
	doc.Set(id(3), core.Int(0))
	doc.Set(core.ObjectID{Number: 5}, core.Int(0))
	doc.Set(id(1), core.Int(0))

	assert.Equal(t, []core.ObjectID{
		{Number: 1},
		{Number: 3},
		{Number: 5},
		{Number: 5, Generation: 1},
	}, doc.ObjectIDs())

	var visited []uint32
	doc.Range(func(id core.ObjectID, _ core.Object) bool {
		visited = append(visited, id.Number)
		return len(visited) < 2
	})
	assert.Equal(t, []uint32{1, 3}, visited)
}

func TestDereference(t *testing.T) {
	doc := New()
	doc.Set(id(1), core.Ref(2, 0))
	doc.Set(id(2), core.Int(42))
	doc.Set(id(3), core.Ref(4, 0))
	doc.Set(id(4), core.Ref(3, 0))

	obj, err := doc.Dereference(core.Ref(1, 0))
	require.NoError(t, err)
	assert.Equal(t, core.Int(42), obj)

	_, err = doc.Dereference(core.Ref(3, 0))
	assert.ErrorIs(t, err, core.ErrReferenceCycle)

	_, err = doc.Dereference(core.Ref(9, 0))
	assert.ErrorIs(t, err, core.ErrObjectNotFound)

	assert.Equal(t, core.Null{}, doc.Resolver().ResolveOrNull(core.Ref(3, 0)))
}

func TestCatalogInfoPageCount(t *testing.T) {
	doc := simpleDocument(t)

	catalog, err := doc.Catalog()
	require.NoError(t, err)
	assert.True(t, catalog.HasType("Catalog"))

	info, err := doc.Info()
	require.NoError(t, err)
	title, _ := info.GetString("Title")
	assert.Equal(t, "Test", string(title.Value))

	count, err := doc.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStructuralErrors(t *testing.T) {
	doc := New()

	_, err := doc.Catalog()
	assert.ErrorIs(t, err, core.ErrMissingRoot)
	var structErr *core.StructuralError
	assert.ErrorAs(t, err, &structErr)

	info, err := doc.Info()
	assert.NoError(t, err)
	assert.Nil(t, info)

	doc.Trailer.Set("Root", doc.Add(core.DictOf("Type", core.Name("Catalog"))))
	_, err = doc.PageCount()
	assert.ErrorIs(t, err, core.ErrMissingPages)
}

func TestRenumberObjects(t *testing.T) {
	doc := New()
	doc.Set(id(10), core.DictOf("Type", core.Name("Catalog"), "Pages", core.Ref(20, 0)))
	doc.Set(id(20), core.DictOf("Kids", core.Array{core.Ref(30, 0)}, "Count", core.Int(1)))
	doc.Set(id(30), core.DictOf("Parent", core.Ref(20, 0), "Contents", core.Ref(40, 0)))
	doc.Set(id(40), core.NewStream(core.DictOf("Length", core.Ref(50, 0)), []byte("q Q")))
	doc.Set(id(50), core.Int(3))
	doc.Trailer.Set("Root", core.Ref(10, 0))

	doc.RenumberObjectsWith(1)

	assert.Equal(t, []core.ObjectID{id(1), id(2), id(3), id(4), id(5)}, doc.ObjectIDs())
	assert.Equal(t, uint32(5), doc.MaxID)
	assert.Equal(t, core.Ref(1, 0), doc.Trailer.Get("Root"))

	catalog, _ := doc.Get(id(1))
	assert.Equal(t, core.Ref(2, 0), catalog.(*core.Dict).Get("Pages"))
	tree, _ := doc.Get(id(2))
	kids, _ := tree.(*core.Dict).GetArray("Kids")
	assert.Equal(t, core.Ref(3, 0), kids[0])
	page, _ := doc.Get(id(3))
	assert.Equal(t, core.Ref(2, 0), page.(*core.Dict).Get("Parent"))
	assert.Equal(t, core.Ref(4, 0), page.(*core.Dict).Get("Contents"))
	stream, _ := doc.Get(id(4))
	assert.Equal(t, core.Ref(5, 0), stream.(*core.Stream).Dict.Get("Length"))
}

func TestRenumberSwapsWithoutCollision(t *testing.T) {
	// 3 becomes 2 and 4 becomes 3. A reference rewritten to 3 must not be
	// rewritten again to 2.
	doc := New()
	doc.Set(id(1), core.Array{core.Ref(3, 0)})
	doc.Set(id(3), core.Array{core.Ref(4, 0)})
	doc.Set(id(4), core.Array{core.Ref(1, 0)})

	doc.RenumberObjectsWith(1)

	obj, _ := doc.Get(id(1))
	assert.Equal(t, core.Array{core.Ref(2, 0)}, obj)
	obj, _ = doc.Get(id(2))
	assert.Equal(t, core.Array{core.Ref(3, 0)}, obj)
	obj, _ = doc.Get(id(3))
	assert.Equal(t, core.Array{core.Ref(1, 0)}, obj)
}

func TestRenumberNullsDanglingReferences(t *testing.T) {
	// 10 becomes 1; the dangling 1 0 R must not turn into a self-reference
	doc := New()
	doc.Set(id(10), core.DictOf("Dangling", core.Ref(1, 0), "Next", core.Ref(20, 0)))
	doc.Set(id(20), core.Array{core.Ref(10, 0), core.Ref(20, 3)})
	doc.Trailer.Set("Root", core.Ref(10, 0))
	doc.Trailer.Set("Info", core.Ref(99, 0))

	doc.RenumberObjectsWith(1)

	obj, _ := doc.Get(id(1))
	assert.Equal(t, core.Null{}, obj.(*core.Dict).Get("Dangling"))
	assert.Equal(t, core.Ref(2, 0), obj.(*core.Dict).Get("Next"))
	obj, _ = doc.Get(id(2))
	assert.Equal(t, core.Array{core.Ref(1, 0), core.Null{}}, obj)
	assert.Equal(t, core.Ref(1, 0), doc.Trailer.Get("Root"))
	assert.Equal(t, core.Null{}, doc.Trailer.Get("Info"))

	// already numbered from start: dangling references are still dropped
	doc.Set(id(2), core.Array{core.Ref(7, 0)})
	doc.RenumberObjectsWith(1)
	obj, _ = doc.Get(id(2))
	assert.Equal(t, core.Array{core.Null{}}, obj)
}

func TestRenumberIdempotent(t *testing.T) {
	doc := simpleDocument(t)
	doc.Set(id(50), core.Array{core.Ref(1, 0), core.Ref(50, 0)})

	doc.RenumberObjectsWith(100)
	first := snapshot(doc)
	root := doc.Trailer.Get("Root")

	doc.RenumberObjectsWith(100)
	assert.Equal(t, first, snapshot(doc))
	assert.Equal(t, root, doc.Trailer.Get("Root"))
	assert.Equal(t, uint32(105), doc.MaxID)

	count, err := doc.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// snapshot renders every object for comparison
func snapshot(doc *Document) map[core.ObjectID]string {
	out := make(map[core.ObjectID]string)
	for objID, obj := range doc.Objects {
		out[objID] = obj.String()
	}
	return out
}

func TestPruneObjects(t *testing.T) {
	doc := simpleDocument(t)
	orphan := doc.Add(core.NewString("orphan"))
	orphanChild := doc.Add(core.Int(7))
	doc.Set(orphan.ID(), core.Array{orphanChild})

	removed := doc.PruneObjects()
	assert.Equal(t, []core.ObjectID{orphan.ID(), orphanChild.ID()}, removed)

	count, err := doc.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, doc.PruneObjects())
}

func TestDeleteZeroLengthStreams(t *testing.T) {
	doc := New()
	empty := doc.Add(core.NewStream(nil, nil))
	full := doc.Add(core.NewStream(nil, []byte("x")))

	assert.Equal(t, []core.ObjectID{empty.ID()}, doc.DeleteZeroLengthStreams())
	_, ok := doc.Get(full.ID())
	assert.True(t, ok)
	assert.Equal(t, core.Null{}, doc.Resolver().ResolveOrNull(empty))
}

func TestCompressDecompressStreams(t *testing.T) {
	doc := New()
	payload := []byte("BT /F1 12 Tf (Hello Hello Hello Hello) Tj ET")
	ref := doc.Add(core.NewStream(nil, append([]byte(nil), payload...)))
	img := doc.Add(core.NewStream(core.DictOf("Filter", core.Name("DCTDecode")), []byte{0xFF, 0xD8}))

	require.NoError(t, doc.CompressStreams(9))
	obj, _ := doc.Get(ref.ID())
	stream := obj.(*core.Stream)
	assert.Equal(t, core.Name("FlateDecode"), stream.Dict.Get("Filter"))
	assert.NotEqual(t, payload, stream.Data)

	assert.Empty(t, doc.DecompressStreams())
	assert.Equal(t, payload, stream.Data)
	assert.False(t, stream.Dict.Has("Filter"))

	obj, _ = doc.Get(img.ID())
	assert.Equal(t, core.Name("DCTDecode"), obj.(*core.Stream).Dict.Get("Filter"))

	assert.Error(t, doc.CompressStreams(10))
}

func TestDecompressStreamsReportsFailures(t *testing.T) {
	doc := New()
	bad := doc.Add(core.NewStream(core.DictOf("Filter", core.Name("FlateDecode")), []byte("not zlib")))

	assert.Equal(t, []core.ObjectID{bad.ID()}, doc.DecompressStreams())
	obj, _ := doc.Get(bad.ID())
	assert.Equal(t, []byte("not zlib"), obj.(*core.Stream).Data)
}

func TestEncryptionFlags(t *testing.T) {
	doc := New()
	state, err := crypt.NewSetup(crypt.Setup{Cipher: crypt.AES128, UserPassword: "u"}, []byte("0123456789abcdef"))
	require.NoError(t, err)

	doc.Encrypt(state)
	assert.True(t, doc.IsEncrypted())
	assert.Same(t, state, doc.Encryption())
	assert.False(t, doc.WasEncrypted())

	doc.SetLoadedEncryption(state)
	assert.True(t, doc.WasEncrypted())
	assert.Same(t, state, doc.EncryptionState())

	doc.Encrypt(nil)
	assert.False(t, doc.IsEncrypted())
}
