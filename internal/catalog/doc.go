// Package catalog builds a read-only summary of a reaction database: which
// families exist, which shard numbers each family has on disk, and how many
// of its records are unreviewed, approved or rejected.
//
// # Overview
//
// The record store only ever looks at one shard at a time. The catalog is
// the whole-database view used for reporting:
//
//	store.List() ──► ParseFilename ──► shard.Load ──► FamilySummary
//
// # Family Grouping
//
// A shard's family is the part of its filename before the last underscore,
// so "intra_H_migration_1.yml" belongs to "intra_H_migration". This is exact
// grouping, unlike shard.FamilyFiles which matches by substring.
//
// # Consistency
//
// Build reads each shard file once with no locking. A save running at the
// same time may or may not be reflected. A shard that fails to parse fails
// the whole build with shard.ErrCorruptShard; nothing is repaired.
//
// # Usage
//
//	cat, err := catalog.Build(db.Store(), logger)
//	if err != nil {
//	    return err
//	}
//	for _, family := range cat.Families() {
//	    s := cat.Family(family)
//	    fmt.Printf("%s: %d records in %d shards\n", family, s.Records, len(s.Shards))
//	}
package catalog
