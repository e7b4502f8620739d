// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cipher

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)
	nonce := BuildNonce(1234, 1, 2)
	plaintext := []byte("parking heater, start, 30 minutes")

	ciphertext, err := Encrypt(key, nonce, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext equals plaintext")
	}

	decrypted, err := Decrypt(key, nonce, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("decrypted = %q, want %q", decrypted, plaintext)
	}
}

func TestBuildNonceVariesWithSeq(t *testing.T) {
	a := BuildNonce(1, 1, 2)
	b := BuildNonce(2, 1, 2)
	if a == b {
		t.Fatal("nonces for different sequence numbers collide")
	}
}

func TestEncryptRejectsBadKeySize(t *testing.T) {
	nonce := BuildNonce(1, 1, 2)
	if _, err := Encrypt([]byte("short"), nonce, []byte("x")); err != ErrInvalidKeySize {
		t.Fatalf("got err %v, want ErrInvalidKeySize", err)
	}
}
