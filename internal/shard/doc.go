// Package shard maps reaction indices to shard files and reads, merges and
// writes those files. It also allocates the next free index of a family.
//
// # Overview
//
// Reactions of one family are numbered from 0. Each family is split into
// shard files of MaxRecordsPerShard consecutive indices:
//
//	index   0 ..  499  →  <family>_0.yml
//	index 500 ..  999  →  <family>_1.yml
//	index 1000 .. 1499 →  <family>_2.yml
//
// A shard file is a YAML mapping from index to record. Keys are written as
// integers but quoted keys such as '501' are accepted on load.
//
// # Shard Discovery
//
// FamilyFiles returns every file whose name contains the family label as a
// substring. This over-matches when one family name is contained in another:
//
//	FamilyFiles("H_Abstraction") on
//	  H_Abstraction_0.yml         ✓
//	  intra_H_Abstraction_0.yml   ✓ (different family)
//
// The allocator works from that same substring-matched set, so it inherits
// the over-match: if intra_H_Abstraction_1.yml holds index 501, the next
// H_Abstraction index is 502 even when H_Abstraction_0.yml ends at 1.
// Keep family labels free of one another as substrings.
//
// ParseFilename splits on the last underscore and accepts only names ending
// in .yml with no other dot. The allocator uses it for the shard number and
// the catalog for exact family grouping; names it rejects are skipped.
//
// # Index Allocation
//
// The allocator assumes indices are assigned densely and in order:
//
//  1. List the family's shard files
//  2. Pick the one with the highest shard number
//  3. Return one past the highest key in it (0 if it is empty)
//
// Only that one file is read. Indices saved out of order into a lower shard
// are not seen. Allocation is not a reservation: two processes asking at the
// same time get the same answer unless the caller holds the family lock.
//
// # Load and Save
//
// Load treats a missing or blank file as an empty shard. A file that does not
// parse, or has a key that is not an integer, returns ErrCorruptShard and is
// left untouched. Save encodes all records and replaces the file; records
// not in memory are lost, so callers always Load, Put, then Save.
//
// # Concurrency
//
// A Shard is a plain value with no internal locking. Cross-process safety
// comes from storage.Store.Lock around the load-merge-save cycle.
//
// # Usage
//
//	name := shard.Filename(index, "H_Abstraction")
//	s, err := shard.Load(store, name)
//	if err != nil {
//	    return err
//	}
//	s.Put(index, rec)
//	return s.Save(store)
package shard
