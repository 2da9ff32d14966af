package shard

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dreamware/am3db/internal/storage"
)

// Allocator hands out the next unused global index of a family.
//
// Only the highest-numbered shard is scanned: records go to the shard
// matching their slot and indices are assigned in increasing order, so no
// lower shard can hold a higher index. An index pre-assigned past the
// current highest shard breaks this and a later allocation can collide.
type Allocator struct {
	store storage.Store
	log   *zap.Logger
}

// NewAllocator creates an allocator reading shards from store
func NewAllocator(store storage.Store, log *zap.Logger) *Allocator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Allocator{store: store, log: log}
}

// NextIndex returns one past the highest index of the family's highest shard.
// A family without shards starts at 0. An empty highest shard scans as -1.
func (a *Allocator) NextIndex(family string) (int, error) {
	files, err := FamilyFiles(a.store, family)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	maxNum, maxFile := -1, ""
	for name := range files {
		_, num, err := ParseFilename(name)
		if err != nil {
			a.log.Warn("skipping file that is not a shard",
				zap.String("family", family), zap.String("file", name))
			continue
		}
		if num > maxNum {
			maxNum, maxFile = num, name
		}
	}
	if maxFile == "" {
		return 0, nil
	}

	s, err := Load(a.store, maxFile)
	if err != nil {
		return 0, fmt.Errorf("allocate index for %s: %w", family, err)
	}
	next := s.MaxIndex() + 1
	a.log.Debug("allocated index",
		zap.String("family", family), zap.String("file", maxFile), zap.Int("index", next))
	return next, nil
}
