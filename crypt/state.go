package crypt

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/logging"
)

// State holds everything needed to encrypt or decrypt a document's objects:
// the file key, the crypt method for strings and streams and the entries of
// the encryption dictionary. A State is read-only once built and may be
// shared between goroutines as long as the random source is safe for
// concurrent use.
type State struct {
	v, r            int
	keyLen          int // file key length in bytes (revisions 2-4)
	o, u, oe, ue    []byte
	perms           []byte
	p               int32
	id              []byte
	encryptMetadata bool

	strF, stmF method
	filters    map[core.Name]method

	key   []byte
	owner bool
	rand  io.Reader
	dict  *core.Dict
}

func newState(opts []Option) *State {
	s := &State{rand: rand.Reader, encryptMetadata: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewState authenticates password against an encryption dictionary and
// derives the file key. fileID is the first element of the trailer's ID
// array. The password is tried as the user password first and then as the
// owner password.
func NewState(dict *core.Dict, fileID []byte, password string, opts ...Option) (*State, error) {
	if dict == nil {
		return nil, ErrMissingEncryptionDictionary
	}
	s := newState(opts)
	if err := s.readDict(dict); err != nil {
		return nil, err
	}
	s.id = append([]byte(nil), fileID...)
	s.dict = dict.Clone()

	var ok bool
	if s.r >= 5 {
		pw := unicodePassword(password)
		if s.key, ok = s.authUserV5(pw); !ok {
			s.key, ok = s.authOwnerV5(pw)
			s.owner = ok
		}
		if ok && !s.checkPerms() {
			logging.For("crypt").Warn("Perms entry does not match P", "p", s.p)
		}
	} else {
		pw := legacyPassword(password)
		if s.key, ok = s.authUser(pw); !ok {
			s.key, ok = s.authOwner(pw)
			s.owner = ok
		}
	}
	if !ok {
		return nil, ErrWrongPassword
	}
	return s, nil
}

// readDict validates the encryption dictionary and loads its entries
func (s *State) readDict(dict *core.Dict) error {
	if filter, _ := dict.GetName("Filter"); filter != "Standard" {
		return fmt.Errorf("%w: security handler %v", ErrUnsupportedCipher, dict.Get("Filter"))
	}

	v, _ := dict.GetInt("V")
	r, ok := dict.GetInt("R")
	if !ok {
		return fmt.Errorf("%w: missing R", ErrInvalidEncryptionDictionary)
	}
	s.v, s.r = int(v), int(r)
	if s.r < 2 || s.r > 6 {
		return fmt.Errorf("%w: revision %d", ErrUnsupportedCipher, s.r)
	}

	p, ok := dict.GetInt("P")
	if !ok {
		return fmt.Errorf("%w: missing P", ErrInvalidEncryptionDictionary)
	}
	// P may be written as an unsigned 32-bit value
	s.p = int32(uint32(p))

	if em, ok := dict.GetBool("EncryptMetadata"); ok {
		s.encryptMetadata = bool(em)
	}

	minLen := 32
	if s.r >= 5 {
		minLen = 48
	}
	o, ok1 := dict.GetString("O")
	u, ok2 := dict.GetString("U")
	if !ok1 || !ok2 || len(o.Value) < minLen || len(u.Value) < minLen {
		return fmt.Errorf("%w: O and U must be at least %d bytes", ErrInvalidEncryptionDictionary, minLen)
	}
	s.o, s.u = o.Value, u.Value

	if s.r >= 5 {
		oe, ok1 := dict.GetString("OE")
		ue, ok2 := dict.GetString("UE")
		if !ok1 || !ok2 || len(oe.Value) < 32 || len(ue.Value) < 32 {
			return fmt.Errorf("%w: OE and UE must be 32 bytes", ErrInvalidEncryptionDictionary)
		}
		s.oe, s.ue = oe.Value, ue.Value
		if perms, ok := dict.GetString("Perms"); ok {
			s.perms = perms.Value
		}
	}

	switch s.v {
	case 1, 2:
		s.keyLen = 5
		if bits, ok := dict.GetInt("Length"); ok && s.v == 2 {
			s.keyLen = int(bits) / 8
		}
		if s.keyLen < 5 || s.keyLen > 16 {
			return fmt.Errorf("%w: key length %d bytes", ErrInvalidEncryptionDictionary, s.keyLen)
		}
		s.strF, s.stmF = methodRC4, methodRC4
	case 4, 5:
		s.keyLen = 16
		if s.v == 5 {
			s.keyLen = 32
		}
		if err := s.readCryptFilters(dict); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: version %d", ErrUnsupportedCipher, s.v)
	}
	return nil
}

// readCryptFilters resolves CF, StmF and StrF (versions 4 and 5)
func (s *State) readCryptFilters(dict *core.Dict) error {
	s.filters = map[core.Name]method{"Identity": methodIdentity}

	cf, _ := dict.GetDict("CF")
	var err error
	cf.Range(func(name string, val core.Object) bool {
		f, ok := val.(*core.Dict)
		if !ok {
			err = fmt.Errorf("%w: crypt filter %s is not a dictionary", ErrInvalidEncryptionDictionary, name)
			return false
		}
		cfm, _ := f.GetName("CFM")
		switch cfm {
		case "V2":
			s.filters[core.Name(name)] = methodRC4
		case "AESV2":
			s.filters[core.Name(name)] = methodAESV2
		case "AESV3":
			s.filters[core.Name(name)] = methodAESV3
		case "", "None":
			s.filters[core.Name(name)] = methodIdentity
		default:
			err = fmt.Errorf("%w: crypt filter method %s", ErrUnsupportedCipher, cfm)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	lookup := func(key string) (method, error) {
		name, ok := dict.GetName(key)
		if !ok {
			return methodIdentity, nil
		}
		m, ok := s.filters[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s names unknown crypt filter %s", ErrInvalidEncryptionDictionary, key, name)
		}
		return m, nil
	}
	if s.stmF, err = lookup("StmF"); err != nil {
		return err
	}
	s.strF, err = lookup("StrF")
	return err
}

// NewSetup creates the state for encrypting a document with a new set of
// passwords. fileID becomes part of the key for RC4 and AES-128 and must be
// the first element of the ID array written to the trailer.
func NewSetup(setup Setup, fileID []byte, opts ...Option) (*State, error) {
	s := newState(opts)
	s.id = append([]byte(nil), fileID...)
	s.p = encodeP(setup.Permissions)

	ownerPw := setup.OwnerPassword
	if ownerPw == "" {
		ownerPw = setup.UserPassword
	}

	switch setup.Cipher {
	case RC4Key40:
		s.v, s.r, s.keyLen = 1, 2, 5
		s.strF, s.stmF = methodRC4, methodRC4
	case RC4Key128:
		s.v, s.r, s.keyLen = 2, 3, 16
		s.strF, s.stmF = methodRC4, methodRC4
	case AES128:
		s.v, s.r, s.keyLen = 4, 4, 16
		s.strF, s.stmF = methodAESV2, methodAESV2
		s.encryptMetadata = setup.EncryptMetadata
	case AES256:
		s.v, s.r, s.keyLen = 5, 6, 32
		s.strF, s.stmF = methodAESV3, methodAESV3
		s.encryptMetadata = setup.EncryptMetadata
	default:
		return nil, fmt.Errorf("%w: cipher %v", ErrUnsupportedCipher, setup.Cipher)
	}

	if s.r >= 5 {
		// File key, four salts and the Perms tail
		random := make([]byte, 32+32+4)
		if _, err := io.ReadFull(s.rand, random); err != nil {
			return nil, fmt.Errorf("generate key material: %w", err)
		}
		s.key = random[:32]
		s.buildV5(unicodePassword(ownerPw), unicodePassword(setup.UserPassword), random[32:])
	} else {
		s.o = s.computeO(legacyPassword(ownerPw), legacyPassword(setup.UserPassword))
		s.key = s.fileKey(legacyPassword(setup.UserPassword))
		s.u = s.computeU(s.key)
	}
	s.owner = true
	s.dict = s.buildDict()
	return s, nil
}

// buildDict writes the encryption dictionary for a state made by NewSetup
func (s *State) buildDict() *core.Dict {
	d := core.DictOf(
		"Filter", core.Name("Standard"),
		"V", core.Int(s.v),
		"R", core.Int(s.r),
		"Length", core.Int(s.keyLen*8),
	)
	if s.v >= 4 {
		cfm := core.Name(s.stmF.String())
		d.Set("CF", core.DictOf("StdCF", core.DictOf(
			"AuthEvent", core.Name("DocOpen"),
			"CFM", cfm,
			"Length", core.Int(s.keyLen),
		)))
		d.Set("StmF", core.Name("StdCF"))
		d.Set("StrF", core.Name("StdCF"))
	}
	d.Set("O", core.NewHexString(s.o))
	d.Set("U", core.NewHexString(s.u))
	if s.r >= 5 {
		d.Set("OE", core.NewHexString(s.oe))
		d.Set("UE", core.NewHexString(s.ue))
		d.Set("Perms", core.NewHexString(s.perms))
	}
	d.Set("P", core.Int(s.p))
	if s.v >= 4 && !s.encryptMetadata {
		d.Set("EncryptMetadata", core.Bool(false))
	}
	return d
}

// Dict returns a copy of the encryption dictionary.
func (s *State) Dict() *core.Dict { return s.dict.Clone() }

// Version returns the V entry.
func (s *State) Version() int { return s.v }

// Revision returns the R entry.
func (s *State) Revision() int { return s.r }

// Permissions returns the permission bits from P.
func (s *State) Permissions() Permission { return decodeP(s.p) }

// OwnerAuthenticated reports whether the owner password was supplied.
func (s *State) OwnerAuthenticated() bool { return s.owner }

// EncryptMetadata reports whether XMP metadata streams are encrypted.
func (s *State) EncryptMetadata() bool { return s.encryptMetadata }

// FileID returns the file identifier the keys were derived with.
func (s *State) FileID() []byte { return append([]byte(nil), s.id...) }

// Key returns a copy of the file key.
func (s *State) Key() []byte { return append([]byte(nil), s.key...) }
