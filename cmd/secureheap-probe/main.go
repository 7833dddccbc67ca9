// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command secureheap-probe is a smoke test for the secure heap: it
// installs a heap, allocates a private key's backing bytes through the
// installed hooks, round-trips an age encryption through that memory,
// and reports whether the heap was left clean afterward.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"filippo.io/age"

	"github.com/sealedmem/secureheap/buddy"
	"github.com/sealedmem/secureheap/hooks"
	"github.com/sealedmem/secureheap/lib/secret"
	"github.com/sealedmem/secureheap/pages"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	message := flag.String("message", "the quick brown fox", "plaintext to encrypt during the probe")
	messageFile := flag.String("message-file", "", "read the probe plaintext from this path (or - for stdin) instead of --message")
	recipients := flag.Int("recipients", 1, "number of age recipients to generate and encrypt to")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("parsing --log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *recipients < 1 {
		return fmt.Errorf("--recipients must be at least 1")
	}

	plaintextSource := []byte(*message)
	if *messageFile != "" {
		buffer, err := secret.ReadFromPath(*messageFile)
		if err != nil {
			return fmt.Errorf("reading --message-file: %w", err)
		}
		defer buffer.Close()
		plaintextSource = buffer.Bytes()
		logger.Info("loaded probe plaintext from file", "path", *messageFile, "bytes", buffer.Len())
	}

	h := hooks.Install(buddy.NewSecureHeap())
	defer hooks.Uninstall()

	identity, recipient, ptr, err := generateHeapBackedIdentity(h)
	if err != nil {
		return fmt.Errorf("generating heap-backed identity: %w", err)
	}
	logger.Info("generated age identity in heap-backed memory",
		"public_key", recipient.String(),
		"actual_size", h.ActualSize(ptr))

	recipientKeys := []string{recipient.String()}
	for i := 1; i < *recipients; i++ {
		extra, err := age.GenerateX25519Identity()
		if err != nil {
			return fmt.Errorf("generating extra recipient %d: %w", i, err)
		}
		recipientKeys = append(recipientKeys, extra.Recipient().String())
	}

	ciphertext, err := encryptTo(plaintextSource, recipientKeys)
	if err != nil {
		h.Free(ptr, "main.go", 0)
		return fmt.Errorf("encrypting: %w", err)
	}
	logger.Info("encrypted probe message", "recipients", len(recipientKeys), "bytes", len(ciphertext))

	plaintext, err := decryptWith(ciphertext, identity)
	if err != nil {
		h.Free(ptr, "main.go", 0)
		return fmt.Errorf("decrypting: %w", err)
	}
	if !bytes.Equal(plaintext, plaintextSource) {
		h.Free(ptr, "main.go", 0)
		return fmt.Errorf("round trip mismatch: got %q, want %q", plaintext, plaintextSource)
	}
	logger.Info("decrypted probe message matches", "plaintext", string(plaintext))

	logger.Info("heap usage before release", "used_bytes", h.Used())
	h.Free(ptr, "main.go", 0)

	if !h.Done() {
		logger.Warn("heap reports outstanding allocations after releasing the probe key")
		return fmt.Errorf("heap was not left clean")
	}
	logger.Info("heap left clean, probe succeeded")
	return nil
}

// generateHeapBackedIdentity generates an age x25519 identity and
// copies its serialized private key into memory obtained through h's
// Malloc hook, rather than a plain Go-heap string or a secret.Buffer.
// This is the concrete demonstration of a cryptography library's
// private key material living inside the secure heap.
func generateHeapBackedIdentity(h hooks.Hooks) (age.Identity, *age.X25519Recipient, uintptr, error) {
	fresh, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, nil, 0, err
	}

	privateKeyBytes := []byte(fresh.String())
	ptr := h.Malloc(uintptr(len(privateKeyBytes)), "main.go", 0)
	if ptr == 0 {
		return nil, nil, 0, fmt.Errorf("allocating %d bytes for private key", len(privateKeyBytes))
	}

	span := pages.Bytes(ptr, uintptr(len(privateKeyBytes)))
	copy(span, privateKeyBytes)
	secret.Zero(privateKeyBytes)

	identity, err := age.ParseX25519Identity(string(span))
	if err != nil {
		h.Free(ptr, "main.go", 0)
		return nil, nil, 0, fmt.Errorf("parsing heap-backed identity: %w", err)
	}
	return identity, fresh.Recipient(), ptr, nil
}

func encryptTo(plaintext []byte, recipientKeys []string) ([]byte, error) {
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var buf bytes.Buffer
	writer, err := age.Encrypt(&buf, recipients...)
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decryptWith(ciphertext []byte, identity age.Identity) ([]byte, error) {
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}
