// Package database is the record store: it places reactions in their family
// shard files and persists them with a whole-file read-merge-write cycle.
//
// Saves are last-writer-wins. Without locking, two processes saving to the
// same family can both read the same shard snapshot and the second write
// drops the first one's record. Enable FileOptions.Locking to serialize
// allocation and the read-modify-write per family, for saves and reviews
// alike.
package database

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dreamware/am3db/internal/reaction"
	"github.com/dreamware/am3db/internal/record"
	"github.com/dreamware/am3db/internal/review"
	"github.com/dreamware/am3db/internal/shard"
	"github.com/dreamware/am3db/internal/storage"
	"github.com/dreamware/am3db/internal/user"
)

// ReactionsDir is the shard directory under the database root
const ReactionsDir = "reactions"

// DB is a reaction database rooted at a directory
type DB struct {
	root  string
	opts  storage.FileOptions
	store storage.Store
	alloc *shard.Allocator
	users *user.Directory
	log   *zap.Logger
}

// Open returns the database rooted at root. Nothing is created on disk until
// the first save.
func Open(root string, opts storage.FileOptions, log *zap.Logger) *DB {
	store := storage.NewFileStore(filepath.Join(root, ReactionsDir), opts)
	db := New(store, user.NewDirectory(root, log), log)
	db.root = root
	db.opts = opts
	return db
}

// New returns a database over an arbitrary shard store
func New(store storage.Store, users *user.Directory, log *zap.Logger) *DB {
	if log == nil {
		log = zap.NewNop()
	}
	return &DB{
		store: store,
		alloc: shard.NewAllocator(store, log),
		users: users,
		log:   log,
	}
}

// Root returns the database root, empty for non file-backed databases
func (db *DB) Root() string { return db.root }

// Store returns the shard store
func (db *DB) Store() storage.Store { return db.store }

// Users returns the user directory
func (db *DB) Users() *user.Directory { return db.users }

// Allocator returns the index allocator
func (db *DB) Allocator() *shard.Allocator { return db.alloc }

// Reviewer returns a review state machine resolving users in this database
func (db *DB) Reviewer() *review.Machine {
	return review.NewMachine(db.users, db.log)
}

// FamilyFiles lists the shard files of a family
func (db *DB) FamilyFiles(family string) (map[string]struct{}, error) {
	return shard.FamilyFiles(db.store, family)
}

// Save merges the reaction's record into its shard, replacing any record
// already stored at the same index.
//
// A reaction without a family is reported and skipped; Save then returns nil
// without writing anything.
func (db *DB) Save(r *reaction.Reaction) error {
	if r.Family == "" {
		db.log.Error("cannot save a reaction without identifying its family",
			zap.String("reaction", r.Label))
		return nil
	}

	rec, err := r.Encode()
	if err != nil {
		return err
	}

	unlock, err := db.lock(r.Family)
	if err != nil {
		return err
	}
	defer unlock()

	return db.save(r, rec)
}

// lock sets up the shard folder and takes the family lock
func (db *DB) lock(family string) (func(), error) {
	if err := db.store.Setup(); err != nil {
		return nil, fmt.Errorf("set up folders: %w", err)
	}
	release, err := db.store.Lock(family)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(); err != nil {
			db.log.Warn("failed to release lock", zap.String("family", family), zap.Error(err))
		}
	}, nil
}

// save resolves the index and merges rec into its shard.
// The caller holds the family lock.
func (db *DB) save(r *reaction.Reaction, rec record.Record) error {
	index, err := r.ResolveIndex(db.alloc)
	if err != nil {
		return err
	}

	name := shard.Filename(index, r.Family)
	s, err := shard.Load(db.store, name)
	if err != nil {
		return err
	}
	if !s.OwnsIndex(index) {
		return fmt.Errorf("%s #%d: %w", r.Family, index, shard.ErrIndexNotOwned)
	}
	if _, exists := s.Get(index); exists {
		db.log.Debug("overwriting record", zap.String("family", r.Family), zap.Int("index", index))
	}
	s.Put(index, rec)
	if err := s.Save(db.store); err != nil {
		return err
	}

	db.log.Info("saved reaction",
		zap.String("reaction", r.Label),
		zap.String("family", r.Family),
		zap.Int("index", index),
		zap.String("file", name))
	return nil
}

// SaveTo saves the reaction into the database rooted at root, using the
// same storage options. Index allocation also happens against that root.
func (db *DB) SaveTo(r *reaction.Reaction, root string) error {
	return Open(root, db.opts, db.log).Save(r)
}

// Load returns the record stored at index in a family.
// Returns an error wrapping storage.ErrKeyNotFound if there is none.
func (db *DB) Load(family string, index int) (record.Record, error) {
	s, err := shard.Load(db.store, shard.Filename(index, family))
	if err != nil {
		return record.Record{}, err
	}
	if !s.OwnsIndex(index) {
		return record.Record{}, fmt.Errorf("%s #%d: %w", family, index, shard.ErrIndexNotOwned)
	}
	rec, ok := s.Get(index)
	if !ok {
		return record.Record{}, fmt.Errorf("%s #%d: %w", family, index, storage.ErrKeyNotFound)
	}
	return rec, nil
}

// LoadReaction returns the stored reaction at index as a reviewable reaction
func (db *DB) LoadReaction(family string, index int) (*reaction.Reaction, error) {
	rec, err := db.Load(family, index)
	if err != nil {
		return nil, err
	}
	return reaction.FromRecord(family, index, rec, db.log), nil
}

// Approve records an approval on a stored reaction and saves it.
// It returns false if the reviewer is unknown and nothing changed.
func (db *DB) Approve(family string, index int, name string) (bool, error) {
	return db.review(family, index, func(m *review.Machine, l *review.Log) (bool, error) {
		return m.Approve(l, name)
	})
}

// Reject records a rejection on a stored reaction and saves it.
// It returns false if the reviewer is unknown and nothing changed.
func (db *DB) Reject(family string, index int, name, reason string) (bool, error) {
	return db.review(family, index, func(m *review.Machine, l *review.Log) (bool, error) {
		return m.Reject(l, name, reason)
	})
}

// review applies one transition under the family lock, so concurrent
// reviews of a family never read the same shard snapshot.
func (db *DB) review(family string, index int, apply func(*review.Machine, *review.Log) (bool, error)) (bool, error) {
	unlock, err := db.lock(family)
	if err != nil {
		return false, err
	}
	defer unlock()

	r, err := db.LoadReaction(family, index)
	if err != nil {
		return false, err
	}
	changed, err := apply(db.Reviewer(), &r.Review)
	if err != nil || !changed {
		return false, err
	}
	rec, err := r.Encode()
	if err != nil {
		return false, err
	}
	return true, db.save(r, rec)
}
