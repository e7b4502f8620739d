// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package cipher implements the AES-128-CTR privacy layer wrapped
// around every over-the-air packet. The pack has no third-party
// AES-CTR module (even the Matter implementation in backkem-matter
// builds directly on crypto/aes and crypto/cipher), so this builds
// on the standard library the same way.
package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// KeySize is the AES-128 key size in bytes.
const KeySize = 16

// NonceSize is the size of the CTR nonce in bytes. It is constructed
// rather than random: a fresh nonce per packet comes from the packet's
// sequence number and addressing, which are already unique and
// transmitted in the clear.
const NonceSize = aes.BlockSize

var (
	ErrInvalidKeySize = errors.New("cipher: key must be 16 bytes")
	ErrPacketTooShort = errors.New("cipher: packet shorter than nonce fields")
)

// BuildNonce derives the 16-byte CTR nonce from a packet's sequence
// number and node addresses: 4 bytes of little-endian sequence, the
// source address, the destination address, and 10 zero bytes. Seq/src/dst
// are already unique per packet on the wire, so no separate IV needs
// to be transmitted.
func BuildNonce(seq uint32, src, dst uint8) [NonceSize]byte {
	var nonce [NonceSize]byte
	nonce[0] = byte(seq)
	nonce[1] = byte(seq >> 8)
	nonce[2] = byte(seq >> 16)
	nonce[3] = byte(seq >> 24)
	nonce[4] = src
	nonce[5] = dst
	// remaining 10 bytes stay zero
	return nonce
}

// Encrypt and Decrypt are the same AES-CTR keystream XOR, kept as two
// names so call sites read naturally.

// Encrypt XORs plaintext with the AES-128-CTR keystream for the given
// key and nonce, returning a new slice the same length as plaintext.
func Encrypt(key []byte, nonce [NonceSize]byte, plaintext []byte) ([]byte, error) {
	return ctrXOR(key, nonce, plaintext)
}

// Decrypt reverses Encrypt; CTR mode makes this the identical
// operation.
func Decrypt(key []byte, nonce [NonceSize]byte, ciphertext []byte) ([]byte, error) {
	return ctrXOR(key, nonce, ciphertext)
}

func ctrXOR(key []byte, nonce [NonceSize]byte, src []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, len(src))
	stream := cipher.NewCTR(block, nonce[:])
	stream.XORKeyStream(dst, src)
	return dst, nil
}
