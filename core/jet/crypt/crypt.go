// Package crypt implements the RC4 stream cipher used by Jet to obscure the
// database header and, when a database is encoded, every page after page 0.
package crypt

import (
	"crypto/rc4"
	"encoding/binary"
)

// HeaderStart is the first byte of the encrypted header region on page 0.
const HeaderStart = 0x18

// HeaderKey is the fixed key every Jet file uses for its header region.
var HeaderKey = []byte{0xc7, 0xda, 0x39, 0x6b}

// EncodingKeySize is the width of the per-database encoding key.
const EncodingKeySize = 4

// Decrypt returns the RC4 transform of src under key. Each call starts from a
// fresh cipher state and src is left untouched. Because RC4 is symmetric the
// same function encrypts.
func Decrypt(key, src []byte) []byte {
	c, err := rc4.NewCipher(key)
	if err != nil {
		// rc4 only rejects keys outside 1..256 bytes; every key used here is 4 bytes.
		panic("crypt: " + err.Error())
	}
	dst := make([]byte, len(src))
	c.XORKeyStream(dst, src)
	return dst
}

// PageKey derives the key of page n: the little-endian page number XORed with
// the database encoding key.
func PageKey(n uint32, encodingKey []byte) []byte {
	key := make([]byte, EncodingKeySize)
	binary.LittleEndian.PutUint32(key, n)
	for i := range key {
		key[i] ^= encodingKey[i%len(encodingKey)]
	}
	return key
}

// IsZeroKey reports whether key is all zero, which marks an unencoded database.
func IsZeroKey(key []byte) bool {
	for _, b := range key {
		if b != 0 {
			return false
		}
	}
	return true
}
