// Package catalog summarises the contents of a reaction database.
// See doc.go for complete package documentation.
package catalog

import (
	"sort"

	"go.uber.org/zap"

	"github.com/dreamware/am3db/internal/review"
	"github.com/dreamware/am3db/internal/shard"
	"github.com/dreamware/am3db/internal/storage"
)

// FamilySummary describes the shards and records of one family.
//
// Review counts follow the review policy: a record with a rejection counts
// as rejected even if it was approved before.
type FamilySummary struct {
	Family string

	// Shards lists the shard numbers present on disk, ascending.
	// Gaps are possible when shards were removed by hand.
	Shards []int

	Records    int
	Unreviewed int
	Approved   int
	Rejected   int

	// NextIndex is one past the highest index found in any shard
	NextIndex int
}

// Catalog is a read-only snapshot of every family in a store.
//
// Architecture:
//
//	┌──────────────────────────────────────┐
//	│              Catalog                 │
//	├──────────────────────────────────────┤
//	│  families: map[family]→summary       │
//	├──────────────────────────────────────┤
//	│  file → (family, number) → records   │
//	│  "H_Abstraction_1.yml" → (H_Ab…, 1)  │
//	└──────────────────────────────────────┘
//
// A Catalog is built once and never updated; rebuild it after saves.
type Catalog struct {
	families map[string]*FamilySummary
}

// Build scans every shard file in the store.
// Files that are not shards, such as "notes.yml" or "fam_0.yml.bak", are
// skipped; a corrupt shard fails the build.
func Build(store storage.Store, log *zap.Logger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	names, err := store.List()
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		families: make(map[string]*FamilySummary),
	}
	for _, name := range names {
		if _, _, err := shard.ParseFilename(name); err != nil {
			log.Warn("skipping file that is not a shard", zap.String("file", name))
			continue
		}
		s, err := shard.Load(store, name)
		if err != nil {
			return nil, err
		}
		c.add(s)
	}

	for _, summary := range c.families {
		sort.Ints(summary.Shards)
	}
	return c, nil
}

func (c *Catalog) add(s *shard.Shard) {
	summary, ok := c.families[s.Family]
	if !ok {
		summary = &FamilySummary{Family: s.Family}
		c.families[s.Family] = summary
	}
	summary.Shards = append(summary.Shards, s.Number)
	summary.Records += len(s.Records)

	for index, rec := range s.Records {
		rec := rec
		switch review.StateOf(&rec) {
		case review.Approved:
			summary.Approved++
		case review.Rejected:
			summary.Rejected++
		default:
			summary.Unreviewed++
		}
		if index+1 > summary.NextIndex {
			summary.NextIndex = index + 1
		}
	}
}

// Families returns all family labels in lexicographic order
func (c *Catalog) Families() []string {
	families := make([]string, 0, len(c.families))
	for family := range c.families {
		families = append(families, family)
	}
	sort.Strings(families)
	return families
}

// Family returns a copy of a family's summary, or nil if unknown
func (c *Catalog) Family(family string) *FamilySummary {
	summary, ok := c.families[family]
	if !ok {
		return nil
	}
	cp := *summary
	cp.Shards = append([]int(nil), summary.Shards...)
	return &cp
}

// Totals sums the summaries of all families
func (c *Catalog) Totals() FamilySummary {
	total := FamilySummary{}
	for _, summary := range c.families {
		total.Records += summary.Records
		total.Unreviewed += summary.Unreviewed
		total.Approved += summary.Approved
		total.Rejected += summary.Rejected
	}
	return total
}
