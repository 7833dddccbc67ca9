// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed wraps filippo.io/age for a narrow set of operations:
// generate an x25519 keypair, encrypt to one or more recipients, and
// decrypt with a private key. It exists as a worked example of "a
// cryptography library" consuming secure memory from outside — private
// keys and decrypted plaintext come back as [secret.Buffer] values,
// never as plain Go-heap byte slices or strings.
//
// Ciphertext is base64-encoded so it can move through text-oriented
// transports unchanged. Callers pass plaintext []byte to [Encrypt] and
// get a base64 string back; [Decrypt] takes that string and a private
// key and returns the plaintext.
//
// Key exports:
//
//   - [GenerateKeypair] -- new age x25519 keypair in a secret.Buffer
//   - [Encrypt] -- encrypt to one or more age public key recipients
//   - [Decrypt] -- decrypt with a secret.Buffer-held private key
//   - [ParsePublicKey] / [ParsePrivateKey] -- key validation
//
// Depends on lib/secret for secure memory allocation; cmd/secureheap-probe
// shows the same key material living in a buddy-allocated span instead.
package sealed
