// Package storage defines the flat file namespace that shard files live in,
// with an in-memory implementation for tests and a directory-backed one for
// real databases.
//
// # Overview
//
// A Store is a single directory level of named blobs. Names are plain file
// names such as "H_Abstraction_0.yml"; there is no nesting. The shard and
// catalog packages build everything else on top of these operations.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│      shard / catalog / database     │
//	└─────────────────────────────────────┘
//	                 │
//	                 ▼
//	┌─────────────────────────────────────┐
//	│           Store interface           │
//	│  Setup Get Put Delete List Lock     │
//	└─────────────────────────────────────┘
//	                 │
//	       ┌─────────┴─────────┐
//	       ▼                   ▼
//	┌────────────┐      ┌────────────┐
//	│  Memory    │      │   File     │
//	│  Store     │      │   Store    │
//	└────────────┘      └────────────┘
//
// # Implementations
//
// MemoryStore: map guarded by sync.RWMutex
//   - Values are copied on Get and Put
//   - Lock serialises callers per name within the process
//   - Used by unit tests
//
// FileStore: one file per name in a directory
//   - Setup creates the directory tree; it is safe to call repeatedly
//   - List returns regular files only, so subdirectories are ignored
//   - Put replaces the whole file
//
// # File Store Options
//
// Both options are off by default, which gives plain whole-file writes and no
// cross-process coordination:
//
//	AtomicWrites: Put writes to .tmp/<name> and renames it into place, so a
//	              reader never sees a half-written shard.
//	Locking:      Lock takes an advisory flock on .locks/<name>.lock, so
//	              cooperating processes serialise their read-merge-write.
//
// Staging and lock files live in subdirectories and never show up in List.
//
// # Error Handling
//
// ErrKeyNotFound: no blob with that name
//   - Returned by Get and Delete
//   - Shard loading treats it as an empty shard
//
// Other errors come from the file system and are wrapped with the operation.
//
// # Usage
//
//	store := storage.NewFileStore("database/reactions", storage.FileOptions{Locking: true})
//	if err := store.Setup(); err != nil {
//	    return err
//	}
//	unlock, err := store.Lock("H_Abstraction")
//	if err != nil {
//	    return err
//	}
//	defer unlock()
//
//	data, err := store.Get("H_Abstraction_0.yml")
//	if errors.Is(err, storage.ErrKeyNotFound) {
//	    data = nil
//	}
package storage
