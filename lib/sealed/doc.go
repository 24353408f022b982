// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed provides age encryption for transcript backups. It
// wraps filippo.io/age for the operations the backup path needs:
// generate x25519 keypairs, encrypt a blob to one or more recipients,
// and decrypt it again with an identity file.
//
// Ciphertext is raw binary age format, stored directly in the backup
// table's BLOB column. [IsSealed] distinguishes sealed blobs from
// plain ones by the age header, so a store can hold a mix of both
// when encryption is switched on partway through its life.
//
// Key exports:
//
//   - [GenerateKeypair] / [Keypair.IdentityFile] -- new keypair in
//     age-keygen file format
//   - [Encrypt] -- encrypt to age public key recipients
//   - [ParseIdentities] / [LoadIdentities] / [Decrypt] -- decrypt with
//     an identity file
//   - [ParsePublicKey] -- recipient validation for configuration
package sealed
