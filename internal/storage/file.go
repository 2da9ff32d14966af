package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	lockDir = ".locks"
	tempDir = ".tmp"
)

// FileOptions tunes the hardening behaviour of a FileStore.
// The zero value reproduces the plain whole-file read/write contract.
type FileOptions struct {
	// AtomicWrites stages each Put in a temporary file and renames it
	// over the target.
	AtomicWrites bool

	// Locking enables advisory flock(2) locks in Lock. When false Lock
	// returns immediately and concurrent writers can lose updates.
	Locking bool
}

// FileStore implements Store on a single directory.
// Entries are the regular files directly inside Dir; subdirectories are
// never descended into, so lock and staging files stay invisible to List.
type FileStore struct {
	Dir  string
	opts FileOptions
}

// NewFileStore creates a store rooted at dir. The directory is not created
// until Setup is called.
func NewFileStore(dir string, opts FileOptions) *FileStore {
	return &FileStore{Dir: dir, opts: opts}
}

// Setup creates the directory if missing
func (f *FileStore) Setup() error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", f.Dir, err)
	}
	return nil
}

// Get reads the whole file
// Returns ErrKeyNotFound if the file doesn't exist
func (f *FileStore) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Put replaces the whole file.
// Without AtomicWrites a crash mid-write can leave a truncated file.
func (f *FileStore) Put(name string, value []byte) error {
	if !f.opts.AtomicWrites {
		if err := os.WriteFile(f.path(name), value, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}

	staging := filepath.Join(f.Dir, tempDir)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", staging, err)
	}
	tmp, err := os.CreateTemp(staging, name+".*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("stage %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), f.path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Delete removes the file
// No error if the file doesn't exist (idempotent)
func (f *FileStore) Delete(name string) error {
	err := os.Remove(f.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// List returns the names of regular files directly inside Dir.
// A missing directory lists as empty.
func (f *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(f.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", f.Dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Lock takes an exclusive flock on Dir/.locks/<name>.lock when Locking is
// enabled. It blocks until the lock is acquired.
func (f *FileStore) Lock(name string) (func() error, error) {
	if !f.opts.Locking {
		return func() error { return nil }, nil
	}

	dir := filepath.Join(f.Dir, lockDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	fl := flock.New(filepath.Join(dir, name+".lock"))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", name, err)
	}
	return fl.Unlock, nil
}

// Stats sums the sizes of all entries
func (f *FileStore) Stats() (StoreStats, error) {
	names, err := f.List()
	if err != nil {
		return StoreStats{}, err
	}

	stats := StoreStats{}
	for _, name := range names {
		info, err := os.Stat(f.path(name))
		if err != nil {
			return StoreStats{}, fmt.Errorf("stat %s: %w", name, err)
		}
		stats.Keys++
		stats.Bytes += int(info.Size())
	}
	return stats, nil
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.Dir, name)
}
