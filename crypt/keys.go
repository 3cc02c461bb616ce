package crypt

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/secure/precis"
)

// passwordPad fills passwords shorter than 32 bytes (revisions 2-4)
var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// legacyPassword encodes a password for revisions 2-4, which expect
// PDFDocEncoding. Latin-1 agrees with it on every printable character;
// passwords it cannot represent are used as raw UTF-8.
func legacyPassword(pw string) []byte {
	out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(pw))
	if err != nil {
		return []byte(pw)
	}
	return out
}

// unicodePassword prepares a password for revisions 5 and 6: normalised with
// the OpaqueString profile and truncated to 127 bytes.
func unicodePassword(pw string) []byte {
	out, err := precis.OpaqueString.Bytes([]byte(pw))
	if err != nil {
		out = []byte(pw)
	}
	if len(out) > 127 {
		out = out[:127]
	}
	return out
}

func padPassword(pw []byte) []byte {
	out := make([]byte, 32)
	n := copy(out, pw)
	copy(out[n:], passwordPad)
	return out
}

// keyBytes is the file key length for revisions 2-4
func (s *State) keyBytes() int {
	if s.r == 2 {
		return 5
	}
	return s.keyLen
}

// fileKey derives the file key from a user password (revisions 2-4)
func (s *State) fileKey(pw []byte) []byte {
	h := md5.New()
	h.Write(padPassword(pw))
	h.Write(s.o[:32])
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], uint32(s.p))
	h.Write(p[:])
	h.Write(s.id)
	if s.r >= 4 && !s.encryptMetadata {
		h.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	}
	sum := h.Sum(nil)

	n := s.keyBytes()
	if s.r >= 3 {
		for i := 0; i < 50; i++ {
			next := md5.Sum(sum[:n])
			sum = next[:]
		}
	}
	return append([]byte(nil), sum[:n]...)
}

// ownerKey derives the RC4 key that protects the O entry (revisions 2-4)
func (s *State) ownerKey(ownerPw []byte) []byte {
	sum := md5.Sum(padPassword(ownerPw))
	if s.r >= 3 {
		for i := 0; i < 50; i++ {
			sum = md5.Sum(sum[:])
		}
	}
	return sum[:s.keyBytes()]
}

// computeO builds the O entry from both passwords (revisions 2-4)
func (s *State) computeO(ownerPw, userPw []byte) []byte {
	key := s.ownerKey(ownerPw)
	out := rc4XOR(key, padPassword(userPw))
	if s.r >= 3 {
		for i := 1; i <= 19; i++ {
			out = rc4XOR(xorKey(key, byte(i)), out)
		}
	}
	return out
}

// computeU builds the U entry for a file key (revisions 2-4)
func (s *State) computeU(key []byte) []byte {
	if s.r == 2 {
		return rc4XOR(key, passwordPad)
	}
	h := md5.New()
	h.Write(passwordPad)
	h.Write(s.id)
	out := rc4XOR(key, h.Sum(nil))
	for i := 1; i <= 19; i++ {
		out = rc4XOR(xorKey(key, byte(i)), out)
	}
	// The second half is arbitrary padding
	return append(out, make([]byte, 16)...)
}

// authUser checks a user password (revisions 2-4) and returns the file key
func (s *State) authUser(pw []byte) ([]byte, bool) {
	key := s.fileKey(pw)
	u := s.computeU(key)
	if s.r == 2 {
		return key, bytes.Equal(u, s.u[:32])
	}
	return key, bytes.Equal(u[:16], s.u[:16])
}

// authOwner checks an owner password (revisions 2-4) by recovering the user
// password from O.
func (s *State) authOwner(pw []byte) ([]byte, bool) {
	key := s.ownerKey(pw)
	userPw := append([]byte(nil), s.o[:32]...)
	if s.r == 2 {
		userPw = rc4XOR(key, userPw)
	} else {
		for i := 19; i >= 0; i-- {
			userPw = rc4XOR(xorKey(key, byte(i)), userPw)
		}
	}
	return s.authUser(userPw)
}

// hashV5 is the password hash of revisions 5 (plain SHA-256) and 6 (the
// iterated hash of ISO 32000-2).
func hashV5(r int, pw, salt, udata []byte) []byte {
	h := sha256.New()
	h.Write(pw)
	h.Write(salt)
	h.Write(udata)
	k := h.Sum(nil)
	if r == 5 {
		return k
	}

	for round := 1; ; round++ {
		unit := len(pw) + len(k) + len(udata)
		k1 := make([]byte, 0, 64*unit)
		for i := 0; i < 64; i++ {
			k1 = append(k1, pw...)
			k1 = append(k1, k...)
			k1 = append(k1, udata...)
		}
		e := aesCBCNoPad(k[:16], k[16:32], k1, true)

		sum := 0
		for _, b := range e[:16] {
			sum += int(b)
		}
		switch sum % 3 {
		case 0:
			next := sha256.Sum256(e)
			k = next[:]
		case 1:
			next := sha512.Sum384(e)
			k = next[:]
		default:
			next := sha512.Sum512(e)
			k = next[:]
		}

		if round >= 64 && int(e[len(e)-1]) <= round-32 {
			break
		}
	}
	return k[:32]
}

var zeroIV = make([]byte, 16)

// authUserV5 checks a user password (revisions 5-6) and unwraps UE
func (s *State) authUserV5(pw []byte) ([]byte, bool) {
	if !bytes.Equal(hashV5(s.r, pw, s.u[32:40], nil), s.u[:32]) {
		return nil, false
	}
	ik := hashV5(s.r, pw, s.u[40:48], nil)
	return aesCBCNoPad(ik, zeroIV, s.ue[:32], false), true
}

// authOwnerV5 checks an owner password (revisions 5-6) and unwraps OE
func (s *State) authOwnerV5(pw []byte) ([]byte, bool) {
	udata := s.u[:48]
	if !bytes.Equal(hashV5(s.r, pw, s.o[32:40], udata), s.o[:32]) {
		return nil, false
	}
	ik := hashV5(s.r, pw, s.o[40:48], udata)
	return aesCBCNoPad(ik, zeroIV, s.oe[:32], false), true
}

// buildV5 fills U, UE, O, OE and Perms for a fresh AES-256 key
func (s *State) buildV5(ownerPw, userPw []byte, salts []byte) {
	uvs, uks := salts[0:8], salts[8:16]
	ovs, oks := salts[16:24], salts[24:32]

	s.u = append(append(hashV5(s.r, userPw, uvs, nil), uvs...), uks...)
	s.ue = aesCBCNoPad(hashV5(s.r, userPw, uks, nil), zeroIV, s.key, true)

	udata := s.u[:48]
	s.o = append(append(hashV5(s.r, ownerPw, ovs, udata), ovs...), oks...)
	s.oe = aesCBCNoPad(hashV5(s.r, ownerPw, oks, udata), zeroIV, s.key, true)

	s.perms = aesECB(s.key, s.permsBlock(salts[32:36]), true)
}

// permsBlock lays out the plaintext of the Perms entry
func (s *State) permsBlock(tail []byte) []byte {
	block := make([]byte, 16)
	binary.LittleEndian.PutUint32(block[0:4], uint32(s.p))
	copy(block[4:8], []byte{0xFF, 0xFF, 0xFF, 0xFF})
	block[8] = 'F'
	if s.encryptMetadata {
		block[8] = 'T'
	}
	copy(block[9:12], "adb")
	copy(block[12:16], tail)
	return block
}

// checkPerms decrypts Perms and compares it with P
func (s *State) checkPerms() bool {
	if len(s.perms) < 16 {
		return false
	}
	block := aesECB(s.key, s.perms[:16], false)
	if string(block[9:12]) != "adb" {
		return false
	}
	return int32(binary.LittleEndian.Uint32(block[0:4])) == s.p
}
