// Package reaction is the in-memory view of a curated reaction: the
// toolkit's reaction description plus the database's own index, family,
// review and clustering fields, and the codec producing its stored record.
package reaction

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dreamware/am3db/internal/record"
	"github.com/dreamware/am3db/internal/review"
	"github.com/dreamware/am3db/internal/toolkit"
)

// ErrMissingFamily is returned when an operation needs the reaction's family
// and none could be determined.
var ErrMissingFamily = errors.New("reaction has no family")

// IndexAllocator hands out the next unused index of a family
type IndexAllocator interface {
	NextIndex(family string) (int, error)
}

// Toolkit bundles the optional capabilities used to derive record metadata.
// Nil members are skipped.
type Toolkit struct {
	Classifier toolkit.Classifier
	Labeler    toolkit.RoleLabeler
	Mapper     toolkit.AtomMapper
}

// Reaction is a reaction being curated. It is a transient view: once saved,
// the shard file owns the record.
type Reaction struct {
	toolkit.Description

	// Family is fixed at creation
	Family string

	// AtomMap is the single atom map of the reaction. AtomMaps, when set,
	// lists several symmetry-equivalent maps and takes precedence.
	AtomMap  []int
	AtomMaps record.AtomMaps

	Clustering [][]int
	Review     review.Log

	index *int
	rXYZ  []*record.Geometry
	pXYZ  []*record.Geometry

	// stored is the record a reaction was loaded from; its derived
	// metadata is kept verbatim on re-encoding.
	stored *record.Record

	tk  Toolkit
	log *zap.Logger
}

// New creates a reaction and classifies its family
func New(d toolkit.Description, tk Toolkit, log *zap.Logger) *Reaction {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Reaction{
		Description: d,
		Clustering:  [][]int{},
		Review:      review.NewLog(),
		rXYZ:        make([]*record.Geometry, len(d.Reactants)),
		pXYZ:        make([]*record.Geometry, len(d.Products)),
		tk:          tk,
		log:         log,
	}
	if tk.Classifier != nil {
		if family, ok := tk.Classifier.ClassifyFamily(d); ok {
			r.Family = family
		}
	}
	return r
}

// FromRecord rebuilds a reaction from a stored record. The index and family
// are fixed and derived metadata is not recomputed.
func FromRecord(family string, index int, rec record.Record, log *zap.Logger) *Reaction {
	if log == nil {
		log = zap.NewNop()
	}
	reasons := rec.RejectedReasons
	if reasons == nil {
		reasons = []string{}
	}
	clustering := rec.Clustering
	if clustering == nil {
		clustering = [][]int{}
	}
	r := &Reaction{
		Description: toolkit.Description{
			Label:        fmt.Sprintf("%s #%d", family, index),
			Multiplicity: rec.Multiplicity,
			Charge:       rec.Charge,
		},
		Family:     family,
		AtomMaps:   rec.AtomMaps,
		Clustering: clustering,
		Review: review.Log{
			ApprovedBy:      rec.ApprovedBy,
			RejectedBy:      rec.RejectedBy,
			RejectedReasons: reasons,
		},
		stored: &rec,
		log:    log,
	}
	r.SetIndex(index)
	return r
}

// Index returns the index and whether it has been resolved or set
func (r *Reaction) Index() (int, bool) {
	if r.index == nil {
		return 0, false
	}
	return *r.index, true
}

// SetIndex overwrites the index
func (r *Reaction) SetIndex(index int) {
	r.index = &index
}

// ResolveIndex returns the index, allocating it on first use.
// The allocated value is kept; later calls never rescan the shards.
func (r *Reaction) ResolveIndex(alloc IndexAllocator) (int, error) {
	if r.index != nil {
		return *r.index, nil
	}
	if r.Family == "" {
		return 0, ErrMissingFamily
	}
	index, err := alloc.NextIndex(r.Family)
	if err != nil {
		return 0, fmt.Errorf("resolve index: %w", err)
	}
	r.index = &index
	return index, nil
}
