package reaction

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dreamware/am3db/internal/record"
	"github.com/dreamware/am3db/internal/toolkit"
)

// Encode builds the stored record of the reaction.
//
// Geometries are fetched first and cached on the reaction. The atom mapper
// maps those same geometries. InChI keys and adjacency lists are best effort: a
// side with any failing species is stored as an empty list.
func (r *Reaction) Encode() (record.Record, error) {
	if r.stored != nil {
		return r.encodeStored(), nil
	}

	rXYZ, err := r.geometries(r.Reactants, r.rXYZ)
	if err != nil {
		return record.Record{}, err
	}
	pXYZ, err := r.geometries(r.Products, r.pXYZ)
	if err != nil {
		return record.Record{}, err
	}

	rLabels, pLabels := r.roleLabels()
	rec := record.Record{
		Multiplicity:    r.Multiplicity,
		Charge:          r.Charge,
		RInChIKeys:      r.inchiKeys(r.Reactants),
		PInChIKeys:      r.inchiKeys(r.Products),
		RAdjacencyLists: r.adjacencyLists(r.Reactants),
		PAdjacencyLists: r.adjacencyLists(r.Products),
		RXYZ:            rXYZ,
		PXYZ:            pXYZ,
		RRMGLabels:      rLabels,
		PRMGLabels:      pLabels,
		AtomMaps:        r.atomMaps(toolkit.Geometries{Reactants: rXYZ, Products: pXYZ}),
		Clustering:      r.Clustering,
		ApprovedBy:      r.Review.ApprovedBy,
		RejectedBy:      r.Review.RejectedBy,
		RejectedReasons: r.Review.RejectedReasons,
	}
	if err := rec.Validate(); err != nil {
		return record.Record{}, fmt.Errorf("encode %s: %w", r.Label, err)
	}
	return rec, nil
}

func (r *Reaction) encodeStored() record.Record {
	rec := *r.stored
	rec.Multiplicity = r.Multiplicity
	rec.Charge = r.Charge
	rec.AtomMaps = r.atomMaps(toolkit.Geometries{Reactants: rec.RXYZ, Products: rec.PXYZ})
	rec.Clustering = r.Clustering
	rec.ApprovedBy = r.Review.ApprovedBy
	rec.RejectedBy = r.Review.RejectedBy
	rec.RejectedReasons = r.Review.RejectedReasons
	return rec
}

// geometries returns each species' geometry, requesting and caching the
// ones not fetched yet
func (r *Reaction) geometries(species []toolkit.Species, cache []*record.Geometry) ([]record.Geometry, error) {
	out := make([]record.Geometry, len(species))
	for i, s := range species {
		if cache[i] == nil {
			g, err := s.Geometry()
			if err != nil {
				return nil, fmt.Errorf("geometry of %s: %w", s.Label(), err)
			}
			cache[i] = &g
		}
		out[i] = *cache[i]
	}
	return out, nil
}

func (r *Reaction) inchiKeys(species []toolkit.Species) []string {
	keys := make([]string, 0, len(species))
	for _, s := range species {
		key, err := s.InChIKey()
		if err != nil {
			r.log.Warn("could not derive inchi keys",
				zap.String("reaction", r.Label), zap.String("species", s.Label()), zap.Error(err))
			return []string{}
		}
		keys = append(keys, key)
	}
	return keys
}

func (r *Reaction) adjacencyLists(species []toolkit.Species) [][]string {
	lists := make([][]string, 0, len(species))
	for _, s := range species {
		variants, err := s.StructureVariants()
		if err != nil || len(variants) == 0 {
			r.log.Warn("could not derive adjacency lists",
				zap.String("reaction", r.Label), zap.String("species", s.Label()), zap.Error(err))
			return [][]string{}
		}
		lists = append(lists, variants)
	}
	return lists
}

// roleLabels queries the labeler once per underlying representation; the
// last successful answer wins.
func (r *Reaction) roleLabels() (record.RoleLabels, record.RoleLabels) {
	if r.tk.Labeler == nil {
		return nil, nil
	}
	var rLabels, pLabels record.RoleLabels
	for _, rep := range r.tk.Labeler.Representations(r.Description) {
		rl, pl, err := r.tk.Labeler.LabelAtomRoles(r.Description, rep)
		if err != nil {
			r.log.Debug("role labeling failed", zap.String("reaction", r.Label), zap.Error(err))
			continue
		}
		rLabels, pLabels = rl, pl
	}
	return rLabels, pLabels
}

// atomMaps returns the atom maps in their nested shape, asking the mapper
// for a single map of geo when none is set.
func (r *Reaction) atomMaps(geo toolkit.Geometries) record.AtomMaps {
	if r.AtomMaps != nil {
		return r.AtomMaps
	}
	if r.AtomMap == nil && r.tk.Mapper != nil {
		m, err := r.tk.Mapper.MapAtoms(r.Description, geo)
		if err != nil {
			r.log.Warn("could not map atoms", zap.String("reaction", r.Label), zap.Error(err))
			return nil
		}
		r.AtomMap = m
	}
	return record.WrapAtomMap(r.AtomMap)
}
