// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"filippo.io/age"
)

// header is the first line of every binary age file.
const header = "age-encryption.org/v1\n"

// Keypair holds an age x25519 keypair.
type Keypair struct {
	// PrivateKey is the secret key in AGE-SECRET-KEY-1... format. It
	// must never be logged or written anywhere except the identity
	// file the operator asked for.
	PrivateKey string

	// PublicKey is the corresponding recipient in age1... format. It
	// goes in the backup.recipients configuration list.
	PublicKey string
}

// GenerateKeypair generates a new age x25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age keypair: %w", err)
	}
	return &Keypair{
		PrivateKey: identity.String(),
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// IdentityFile renders the keypair in the format age-keygen writes,
// so the file is usable with the age CLI as well as with
// [LoadIdentities].
func (k *Keypair) IdentityFile(created time.Time) []byte {
	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "# created: %s\n", created.UTC().Format(time.RFC3339))
	fmt.Fprintf(&buffer, "# public key: %s\n", k.PublicKey)
	fmt.Fprintf(&buffer, "%s\n", k.PrivateKey)
	return buffer.Bytes()
}

// Encrypt encrypts plaintext to one or more recipients specified by
// their age public key strings (age1... format) and returns binary
// age ciphertext.
func Encrypt(plaintext []byte, recipientKeys []string) ([]byte, error) {
	if len(recipientKeys) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	return ciphertext.Bytes(), nil
}

// Identities is a parsed identity file: one or more private keys, any
// of which may unlock a sealed blob.
type Identities struct {
	identities []age.Identity
}

// ParseIdentities reads an age identity file. Comment and blank lines
// are ignored.
func ParseIdentities(reader io.Reader) (*Identities, error) {
	identities, err := age.ParseIdentities(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing identities: %w", err)
	}
	return &Identities{identities: identities}, nil
}

// LoadIdentities reads an age identity file from disk.
func LoadIdentities(path string) (*Identities, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening identity file: %w", err)
	}
	defer file.Close()
	return ParseIdentities(file)
}

// Decrypt decrypts binary age ciphertext with any matching identity.
func Decrypt(ciphertext []byte, identities *Identities) ([]byte, error) {
	if identities == nil || len(identities.identities) == 0 {
		return nil, errors.New("no identities to decrypt with")
	}
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identities.identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return plaintext, nil
}

// IsSealed reports whether data begins with the binary age header.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, []byte(header))
}

// ParsePublicKey validates an age public key string.
func ParsePublicKey(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("invalid age public key: %w", err)
	}
	return nil
}
