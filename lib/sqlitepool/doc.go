// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool behind the
// transcript store.
//
// It wraps zombiezen.com/go/sqlite with the defaults the store relies
// on: WAL journal mode, NORMAL synchronous, a busy timeout for write
// contention, and enforced foreign keys. Callers [Pool.Take] a
// connection, perform work, and [Pool.Put] it back. Connections are
// not safe for concurrent use; each goroutine holds its own for the
// duration of its work.
//
// # Pragmas
//
// Every connection in the pool is initialized with:
//
//   - journal_mode=WAL: readers never block the single writer.
//   - synchronous=NORMAL: transactions survive process crashes, not
//     power loss. Backups taken before every overwrite cover the gap.
//   - busy_timeout=5000: wait up to 5 seconds for the write lock.
//   - foreign_keys=ON: backups and audit entries reference their
//     transcript.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - temp_store=MEMORY: temporary tables and indexes in memory.
//
// # Migrations
//
// [Config.Migrations] is an ordered list of SQL scripts. Open applies
// the ones not yet recorded in PRAGMA user_version, each in its own
// IMMEDIATE transaction, before the pool is returned. Scripts are
// append-only: never edit one that has shipped.
//
// # Usage
//
//	pool, err := sqlitepool.Open(ctx, sqlitepool.Config{
//	    Path:       filepath.Join(root, "transcripts.db"),
//	    Logger:     logger,
//	    Migrations: migrations,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
package sqlitepool
