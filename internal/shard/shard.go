package shard

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dreamware/am3db/internal/record"
	"github.com/dreamware/am3db/internal/storage"
)

// MaxRecordsPerShard is the number of index slots held by one shard file.
// Slot k of shard n holds global index n*MaxRecordsPerShard+k.
const MaxRecordsPerShard = 500

// Ext is the shard file extension.
const Ext = "yml"

// ErrCorruptShard is returned when a shard file exists but cannot be parsed.
var ErrCorruptShard = errors.New("corrupt shard")

// ErrIndexNotOwned is returned when an index does not belong to the shard
// it was routed to, such as a negative index.
var ErrIndexNotOwned = errors.New("index not owned by shard")

// Number returns the shard number holding a global index
func Number(index int) int {
	return index / MaxRecordsPerShard
}

// Filename returns the shard file name holding a global index of a family
func Filename(index int, family string) string {
	return fmt.Sprintf("%s_%d.%s", family, Number(index), Ext)
}

// FamilyFiles returns the set of shard file names belonging to a family.
//
// Matching is by substring, not by exact family token: a family label that is
// a substring of another (H_Abstraction vs R_H_Abstraction) over-matches.
// Callers must keep family labels substring-free.
func FamilyFiles(store storage.Store, family string) (map[string]struct{}, error) {
	names, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("list shards for %s: %w", family, err)
	}

	files := make(map[string]struct{})
	for _, name := range names {
		if strings.Contains(name, family) {
			files[name] = struct{}{}
		}
	}
	return files, nil
}

// ParseFilename splits a shard file name into its family and shard number.
// The name must end in the shard extension with no other dot, so backups
// such as "fam_0.yml.bak" are not shards. The number is the text after the
// last underscore.
func ParseFilename(name string) (string, int, error) {
	base, ok := strings.CutSuffix(name, "."+Ext)
	if !ok || strings.ContainsRune(base, '.') {
		return "", 0, fmt.Errorf("shard file %q does not end in .%s", name, Ext)
	}
	us := strings.LastIndexByte(base, '_')
	if us < 0 {
		return "", 0, fmt.Errorf("shard file %q has no number suffix", name)
	}
	n, err := strconv.Atoi(base[us+1:])
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("shard file %q has no number suffix", name)
	}
	return base[:us], n, nil
}

// Shard is the in-memory content of one shard file.
type Shard struct {
	Family  string
	Number  int
	Records map[int]record.Record
}

// ShardInfo contains metadata about a shard
type ShardInfo struct {
	Family   string // Reaction family
	Number   int    // Shard number within the family
	Filename string // File name in the reactions directory
	Records  int    // Number of records held
}

// New creates an empty shard
func New(family string, number int) *Shard {
	return &Shard{
		Family:  family,
		Number:  number,
		Records: make(map[int]record.Record),
	}
}

// Load reads a shard file from the store.
// A missing or empty file yields an empty shard; unparsable content yields
// ErrCorruptShard.
func Load(store storage.Store, name string) (*Shard, error) {
	family, number, err := ParseFilename(name)
	if err != nil {
		return nil, err
	}
	s := New(family, number)

	data, err := store.Get(name)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}

	// Keys may be written as integers or quoted strings.
	var raw map[string]record.Record
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptShard, name, err)
	}
	for key, rec := range raw {
		index, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: non-integer key %q", ErrCorruptShard, name, key)
		}
		s.Records[index] = rec
	}
	return s, nil
}

// Save writes the full shard content back, replacing the file
func (s *Shard) Save(store storage.Store) error {
	data, err := yaml.Marshal(s.Records)
	if err != nil {
		return fmt.Errorf("encode shard %s: %w", s.Filename(), err)
	}
	if err := store.Put(s.Filename(), data); err != nil {
		return fmt.Errorf("write shard %s: %w", s.Filename(), err)
	}
	return nil
}

// Filename returns the file name of this shard
func (s *Shard) Filename() string {
	return fmt.Sprintf("%s_%d.%s", s.Family, s.Number, Ext)
}

// Get retrieves the record at index
func (s *Shard) Get(index int) (record.Record, bool) {
	rec, ok := s.Records[index]
	return rec, ok
}

// Put sets the record at index, replacing whatever was there
func (s *Shard) Put(index int, rec record.Record) {
	s.Records[index] = rec
}

// Indices returns all record indices in ascending order
func (s *Shard) Indices() []int {
	indices := make([]int, 0, len(s.Records))
	for index := range s.Records {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

// MaxIndex returns the highest index held, or -1 for an empty shard
func (s *Shard) MaxIndex() int {
	max := -1
	for index := range s.Records {
		if index > max {
			max = index
		}
	}
	return max
}

// OwnsIndex reports whether a global index falls in this shard's slots
func (s *Shard) OwnsIndex(index int) bool {
	return index >= 0 && Number(index) == s.Number
}

// Info returns metadata about the shard
func (s *Shard) Info() ShardInfo {
	return ShardInfo{
		Family:   s.Family,
		Number:   s.Number,
		Filename: s.Filename(),
		Records:  len(s.Records),
	}
}
