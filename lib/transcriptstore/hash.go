// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transcriptstore

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// backupDomainKey separates backup content hashes from every other
// BLAKE3 use. The bytes are the ASCII domain name, zero-padded to 32.
// Changing it invalidates every stored backup hash.
var backupDomainKey = [32]byte{
	'b', 'u', 'r', 'e', 'a', 'u', '.', 't', 'r', 'a', 'n', 's', 'c', 'r', 'i', 'p',
	't', '.', 'b', 'a', 'c', 'k', 'u', 'p', 0, 0, 0, 0, 0, 0, 0, 0,
}

// hashBackup returns the hex-encoded keyed hash of uncompressed,
// unencrypted CBOR message bytes.
func hashBackup(data []byte) string {
	hasher, err := blake3.NewKeyed(backupDomainKey[:])
	if err != nil {
		// Only returned for a key of the wrong length.
		panic("transcriptstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}
