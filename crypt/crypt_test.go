package crypt

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfgraph/core"
)

var testFileID = []byte("0123456789abcdef")

var allCiphers = []Cipher{RC4Key40, RC4Key128, AES128, AES256}

func TestSetupAndAuthenticate(t *testing.T) {
	for _, c := range allCiphers {
		t.Run(c.String(), func(t *testing.T) {
			setup, err := NewSetup(Setup{
				Cipher:          c,
				OwnerPassword:   "owner",
				UserPassword:    "user",
				Permissions:     PermPrint | PermCopy,
				EncryptMetadata: true,
			}, testFileID)
			require.NoError(t, err)

			user, err := NewState(setup.Dict(), testFileID, "user")
			require.NoError(t, err)
			assert.Equal(t, setup.Key(), user.Key())
			assert.False(t, user.OwnerAuthenticated())

			owner, err := NewState(setup.Dict(), testFileID, "owner")
			require.NoError(t, err)
			assert.Equal(t, setup.Key(), owner.Key())
			assert.True(t, owner.OwnerAuthenticated())

			_, err = NewState(setup.Dict(), testFileID, "wrong")
			assert.ErrorIs(t, err, ErrWrongPassword)

			assert.Equal(t, PermPrint|PermCopy, user.Permissions())
		})
	}
}

func TestEmptyUserPassword(t *testing.T) {
	for _, c := range allCiphers {
		setup, err := NewSetup(Setup{Cipher: c, OwnerPassword: "secret"}, testFileID)
		require.NoError(t, err)

		state, err := NewState(setup.Dict(), testFileID, "")
		require.NoError(t, err, c.String())
		assert.Equal(t, setup.Key(), state.Key(), c.String())
	}
}

func TestOwnerDefaultsToUser(t *testing.T) {
	setup, err := NewSetup(Setup{Cipher: RC4Key128, UserPassword: "only"}, testFileID)
	require.NoError(t, err)
	state, err := NewState(setup.Dict(), testFileID, "only")
	require.NoError(t, err)
	assert.Equal(t, setup.Key(), state.Key())
}

func TestWrongFileID(t *testing.T) {
	setup, err := NewSetup(Setup{Cipher: RC4Key128, UserPassword: "user"}, testFileID)
	require.NoError(t, err)
	_, err = NewState(setup.Dict(), []byte("another id......"), "user")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestDictionaryEntries(t *testing.T) {
	tests := []struct {
		cipher Cipher
		v, r   core.Int
		length core.Int
		cfm    core.Name
	}{
		{RC4Key40, 1, 2, 40, ""},
		{RC4Key128, 2, 3, 128, ""},
		{AES128, 4, 4, 128, "AESV2"},
		{AES256, 5, 6, 256, "AESV3"},
	}
	for _, tt := range tests {
		s, err := NewSetup(Setup{Cipher: tt.cipher}, testFileID)
		require.NoError(t, err)
		d := s.Dict()

		v, _ := d.GetInt("V")
		r, _ := d.GetInt("R")
		length, _ := d.GetInt("Length")
		assert.Equal(t, tt.v, v, tt.cipher.String())
		assert.Equal(t, tt.r, r, tt.cipher.String())
		assert.Equal(t, tt.length, length, tt.cipher.String())

		if tt.cfm != "" {
			cf, _ := d.GetDict("CF")
			std, _ := cf.GetDict("StdCF")
			cfm, _ := std.GetName("CFM")
			assert.Equal(t, tt.cfm, cfm)
		}
		assert.Equal(t, tt.cipher == AES256, d.Has("Perms"))
	}
}

func TestObjectRoundTrip(t *testing.T) {
	for _, c := range allCiphers {
		t.Run(c.String(), func(t *testing.T) {
			setup, err := NewSetup(Setup{Cipher: c, UserPassword: "pw"}, testFileID)
			require.NoError(t, err)
			reader, err := NewState(setup.Dict(), testFileID, "pw")
			require.NoError(t, err)

			id := core.ObjectID{Number: 12, Generation: 0}
			original := core.DictOf(
				"Title", core.NewString("Quarterly report"),
				"Kids", core.Array{core.NewHexString([]byte{0, 1, 2}), core.Ref(3, 0), core.NewString("")},
			)
			obj := core.Copy(original)

			enc, err := setup.EncryptObject(id, obj)
			require.NoError(t, err)
			title, _ := enc.(*core.Dict).GetString("Title")
			assert.NotEqual(t, "Quarterly report", string(title.Value))
			assert.Equal(t, core.StringLiteral, title.Format)

			dec, err := reader.DecryptObject(id, enc)
			require.NoError(t, err)
			assert.Equal(t, original.String(), dec.String())

			kids, _ := dec.(*core.Dict).GetArray("Kids")
			hex, _ := kids.GetString(0)
			assert.Equal(t, []byte{0, 1, 2}, hex.Value)
			assert.Equal(t, core.StringHex, hex.Format)
		})
	}
}

func TestStreamRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("BT /F1 12 Tf (Hello) Tj ET\n"), 20)
	for _, c := range allCiphers {
		setup, err := NewSetup(Setup{Cipher: c}, testFileID)
		require.NoError(t, err)

		id := core.ObjectID{Number: 4}
		stream := core.NewStream(core.DictOf("Length", core.Int(len(payload))), append([]byte(nil), payload...))

		_, err = setup.EncryptObject(id, stream)
		require.NoError(t, err)
		assert.NotEqual(t, payload, stream.Data, c.String())
		n, _ := stream.Dict.GetInt("Length")
		assert.Equal(t, len(stream.Data), int(n))

		_, err = setup.DecryptObject(id, stream)
		require.NoError(t, err)
		assert.Equal(t, payload, stream.Data, c.String())
	}
}

func TestObjectKeyDependsOnID(t *testing.T) {
	setup, err := NewSetup(Setup{Cipher: RC4Key128}, testFileID)
	require.NoError(t, err)

	a, err := setup.EncryptObject(core.ObjectID{Number: 1}, core.NewString("same"))
	require.NoError(t, err)
	b, err := setup.EncryptObject(core.ObjectID{Number: 2}, core.NewString("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a.(core.String).Value, b.(core.String).Value)
}

func TestExemptStreams(t *testing.T) {
	setup, err := NewSetup(Setup{Cipher: AES128, EncryptMetadata: false}, testFileID)
	require.NoError(t, err)

	xref := core.NewStream(core.DictOf("Type", core.Name("XRef")), []byte("records"))
	_, err = setup.EncryptObject(core.ObjectID{Number: 9}, xref)
	require.NoError(t, err)
	assert.Equal(t, "records", string(xref.Data))

	meta := core.NewStream(core.DictOf("Type", core.Name("Metadata"), "Subtype", core.Name("XML")), []byte("<x/>"))
	_, err = setup.EncryptObject(core.ObjectID{Number: 10}, meta)
	require.NoError(t, err)
	assert.Equal(t, "<x/>", string(meta.Data))

	d := setup.Dict()
	em, ok := d.GetBool("EncryptMetadata")
	assert.True(t, ok)
	assert.False(t, bool(em))

	reader, err := NewState(d, testFileID, "")
	require.NoError(t, err)
	assert.False(t, reader.EncryptMetadata())
	assert.Equal(t, setup.Key(), reader.Key())
}

func TestIdentityCryptFilter(t *testing.T) {
	setup, err := NewSetup(Setup{Cipher: AES128}, testFileID)
	require.NoError(t, err)
	reader, err := NewState(setup.Dict(), testFileID, "")
	require.NoError(t, err)

	stream := core.NewStream(core.DictOf(
		"Filter", core.Array{core.Name("Crypt"), core.Name("ASCIIHexDecode")},
		"DecodeParms", core.Array{core.DictOf("Name", core.Name("Identity")), core.Null{}},
	), []byte("414243>"))

	_, err = reader.DecryptObject(core.ObjectID{Number: 5}, stream)
	require.NoError(t, err)
	assert.Equal(t, "414243>", string(stream.Data))
	assert.Equal(t, []core.Name{"ASCIIHexDecode"}, stream.Filters())

	decoded, err := stream.Decode()
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(decoded))
}

func TestDeterministicWithRandom(t *testing.T) {
	newRand := func() *bytes.Reader { return bytes.NewReader(bytes.Repeat([]byte{0x5A}, 4096)) }

	a, err := NewSetup(Setup{Cipher: AES256, UserPassword: "u"}, testFileID, WithRandom(newRand()))
	require.NoError(t, err)
	b, err := NewSetup(Setup{Cipher: AES256, UserPassword: "u"}, testFileID, WithRandom(newRand()))
	require.NoError(t, err)
	assert.Equal(t, a.Dict().String(), b.Dict().String())

	ea, err := a.EncryptObject(core.ObjectID{Number: 1}, core.NewString("x"))
	require.NoError(t, err)
	eb, err := b.EncryptObject(core.ObjectID{Number: 1}, core.NewString("x"))
	require.NoError(t, err)
	assert.Equal(t, ea, eb)
}

func TestNewStateErrors(t *testing.T) {
	_, err := NewState(nil, testFileID, "")
	assert.ErrorIs(t, err, ErrMissingEncryptionDictionary)

	good, err := NewSetup(Setup{Cipher: RC4Key128}, testFileID)
	require.NoError(t, err)

	handler := good.Dict()
	handler.Set("Filter", core.Name("Adobe.PubSec"))
	_, err = NewState(handler, testFileID, "")
	assert.ErrorIs(t, err, ErrUnsupportedCipher)

	revision := good.Dict()
	revision.Set("R", core.Int(7))
	_, err = NewState(revision, testFileID, "")
	assert.ErrorIs(t, err, ErrUnsupportedCipher)

	short := good.Dict()
	short.Set("O", core.NewString("short"))
	_, err = NewState(short, testFileID, "")
	assert.ErrorIs(t, err, ErrInvalidEncryptionDictionary)

	noP := good.Dict()
	noP.Delete("P")
	_, err = NewState(noP, testFileID, "")
	assert.ErrorIs(t, err, ErrInvalidEncryptionDictionary)

	aes, err := NewSetup(Setup{Cipher: AES128}, testFileID)
	require.NoError(t, err)
	badCFM := aes.Dict()
	cf, _ := badCFM.GetDict("CF")
	std, _ := cf.GetDict("StdCF")
	std.Set("CFM", core.Name("Twofish"))
	_, err = NewState(badCFM, testFileID, "")
	assert.ErrorIs(t, err, ErrUnsupportedCipher)
}

func TestUnsignedP(t *testing.T) {
	setup, err := NewSetup(Setup{Cipher: RC4Key128, Permissions: PermPrint}, testFileID)
	require.NoError(t, err)
	d := setup.Dict()
	p, _ := d.GetInt("P")
	d.Set("P", core.Int(int64(uint32(int32(p)))))

	state, err := NewState(d, testFileID, "")
	require.NoError(t, err)
	assert.Equal(t, PermPrint, state.Permissions())
}

func TestHashRevision5(t *testing.T) {
	want := sha256.Sum256([]byte("pwsaltsaltudata"))
	assert.Equal(t, want[:], hashV5(5, []byte("pw"), []byte("saltsalt"), []byte("udata")))
	assert.Len(t, hashV5(6, []byte("pw"), []byte("saltsalt"), nil), 32)
}

func TestAESDecryptErrors(t *testing.T) {
	key := bytes.Repeat([]byte{1}, 16)
	_, err := aesDecrypt(key, []byte("short"))
	assert.Error(t, err)
	_, err = aesDecrypt(key, make([]byte, 20))
	assert.Error(t, err)

	out, err := aesDecrypt(key, make([]byte, 16))
	require.NoError(t, err)
	assert.Empty(t, out)

	enc, err := aesEncrypt(key, []byte("exactly 16 bytes"), bytes.NewReader(make([]byte, 16)))
	require.NoError(t, err)
	assert.Len(t, enc, 48)
	dec, err := aesDecrypt(key, enc)
	require.NoError(t, err)
	assert.Equal(t, "exactly 16 bytes", string(dec))
}

func TestPermissionString(t *testing.T) {
	assert.Equal(t, "none", Permission(0).String())
	assert.Equal(t, "print|copy", (PermPrint | PermCopy).String())
	assert.True(t, PermAll.Has(PermAssemble))
	assert.Equal(t, int32(-4), encodeP(PermAll))
	assert.Equal(t, PermAll, decodeP(-1))
}
