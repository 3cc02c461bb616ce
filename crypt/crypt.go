// Package crypt implements the standard security handler: password
// authentication, file key derivation and per-object encryption of strings
// and stream payloads.
//
// Revisions 2 to 6 are supported, which covers RC4 with 40 to 128 bit keys,
// AES-128 (crypt filter AESV2) and AES-256 (AESV3). A [State] is obtained
// either by authenticating against an existing encryption dictionary with
// [NewState] or by building a fresh one for output with [NewSetup].
//
// The package never enforces permissions. [State.Permissions] reports the
// bits stored in the file and callers decide what to do with them.
package crypt

import (
	"errors"
	"io"
)

var (
	// ErrWrongPassword means neither the user nor the owner password matched.
	ErrWrongPassword = errors.New("incorrect password")
	// ErrUnsupportedCipher covers security handlers, versions, revisions and
	// crypt filter methods this package does not implement.
	ErrUnsupportedCipher = errors.New("unsupported encryption")
	// ErrMissingEncryptionDictionary is returned when the trailer's Encrypt
	// entry does not lead to a dictionary.
	ErrMissingEncryptionDictionary = errors.New("missing encryption dictionary")
	// ErrInvalidEncryptionDictionary is returned for dictionaries with
	// missing or malformed entries.
	ErrInvalidEncryptionDictionary = errors.New("invalid encryption dictionary")
)

// Cipher selects the algorithm family used for new encryption.
type Cipher int

const (
	RC4Key40  Cipher = iota // revision 2, 40-bit RC4
	RC4Key128               // revision 3, 128-bit RC4
	AES128                  // revision 4, AESV2 crypt filter
	AES256                  // revision 6, AESV3 crypt filter
)

func (c Cipher) String() string {
	switch c {
	case RC4Key40:
		return "RC4-40"
	case RC4Key128:
		return "RC4-128"
	case AES128:
		return "AES-128"
	case AES256:
		return "AES-256"
	}
	return "unknown"
}

// Setup describes the encryption to apply when saving.
type Setup struct {
	Cipher        Cipher
	OwnerPassword string // falls back to UserPassword when empty
	UserPassword  string
	Permissions   Permission
	// EncryptMetadata controls whether XMP metadata streams are encrypted.
	// It is only recorded for AES128 and AES256.
	EncryptMetadata bool
}

// Option configures a State.
type Option func(*State)

// WithRandom sets the source of AES initialisation vectors, salts and
// AES-256 file keys. The default is crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(s *State) {
		if r != nil {
			s.rand = r
		}
	}
}
