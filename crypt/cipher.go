package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"fmt"
	"io"

	"github.com/tsawler/pdfgraph/core"
)

// method is the cipher applied by one crypt filter
type method int

const (
	methodIdentity method = iota
	methodRC4
	methodAESV2
	methodAESV3
)

func (m method) String() string {
	switch m {
	case methodRC4:
		return "V2"
	case methodAESV2:
		return "AESV2"
	case methodAESV3:
		return "AESV3"
	}
	return "Identity"
}

// rc4XOR runs RC4 over data with key. Encryption and decryption are the same
// operation.
func rc4XOR(key, data []byte) []byte {
	c, err := rc4.NewCipher(key)
	if err != nil {
		// Keys are always 1 to 256 bytes here
		panic(err)
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

// xorKey returns key with every byte XORed with i
func xorKey(key []byte, i byte) []byte {
	out := make([]byte, len(key))
	for j, b := range key {
		out[j] = b ^ i
	}
	return out
}

// aesEncrypt prefixes a random IV and encrypts data in CBC mode with PKCS#5
// padding.
func aesEncrypt(key, data []byte, rnd io.Reader) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	pad := aes.BlockSize - len(data)%aes.BlockSize
	out := make([]byte, aes.BlockSize+len(data)+pad)
	if _, err := io.ReadFull(rnd, out[:aes.BlockSize]); err != nil {
		return nil, fmt.Errorf("generate IV: %w", err)
	}
	copy(out[aes.BlockSize:], data)
	for i := len(out) - pad; i < len(out); i++ {
		out[i] = byte(pad)
	}

	body := out[aes.BlockSize:]
	cipher.NewCBCEncrypter(block, out[:aes.BlockSize]).CryptBlocks(body, body)
	return out, nil
}

// aesDecrypt reverses aesEncrypt. Input holding only an IV decrypts to
// nothing.
func aesDecrypt(key, data []byte) ([]byte, error) {
	if len(data) < aes.BlockSize {
		return nil, fmt.Errorf("AES data of %d bytes is shorter than the IV", len(data))
	}
	body := data[aes.BlockSize:]
	if len(body) == 0 {
		return []byte{}, nil
	}
	if len(body)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("AES data of %d bytes is not a whole number of blocks", len(body))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, data[:aes.BlockSize]).CryptBlocks(out, body)

	pad := int(out[len(out)-1])
	if pad == 0 || pad > aes.BlockSize {
		return nil, fmt.Errorf("invalid AES padding")
	}
	for _, b := range out[len(out)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("invalid AES padding")
		}
	}
	return out[:len(out)-pad], nil
}

// aesCBCNoPad runs AES-CBC over whole blocks without padding, as used for
// the UE, OE and hash rounds of revision 6.
func aesCBCNoPad(key, iv, data []byte, encrypt bool) []byte {
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	out := make([]byte, len(data))
	if encrypt {
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, data)
	} else {
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	}
	return out
}

// aesECB encrypts or decrypts whole blocks independently (the Perms entry)
func aesECB(key, data []byte, encrypt bool) []byte {
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	out := make([]byte, len(data))
	for i := 0; i+aes.BlockSize <= len(data); i += aes.BlockSize {
		if encrypt {
			block.Encrypt(out[i:], data[i:i+aes.BlockSize])
		} else {
			block.Decrypt(out[i:], data[i:i+aes.BlockSize])
		}
	}
	return out
}

// objectKey derives the key for one object. AESV3 uses the file key as is;
// the older methods mix in the object number and generation.
func (s *State) objectKey(id core.ObjectID, m method) []byte {
	if m == methodAESV3 {
		return s.key
	}
	h := md5.New()
	h.Write(s.key)
	h.Write([]byte{
		byte(id.Number), byte(id.Number >> 8), byte(id.Number >> 16),
		byte(id.Generation), byte(id.Generation >> 8),
	})
	if m == methodAESV2 {
		h.Write([]byte("sAlT"))
	}
	n := len(s.key) + 5
	if n > 16 {
		n = 16
	}
	return h.Sum(nil)[:n]
}

// cryptBytes encrypts or decrypts one string or stream payload
func (s *State) cryptBytes(id core.ObjectID, data []byte, m method, encrypt bool) ([]byte, error) {
	switch m {
	case methodIdentity:
		return data, nil
	case methodRC4:
		return rc4XOR(s.objectKey(id, m), data), nil
	case methodAESV2, methodAESV3:
		key := s.objectKey(id, m)
		if encrypt {
			return aesEncrypt(key, data, s.rand)
		}
		return aesDecrypt(key, data)
	}
	return nil, fmt.Errorf("%w: crypt method %v", ErrUnsupportedCipher, m)
}
