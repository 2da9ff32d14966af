// Package toolkit declares the chemistry capabilities the database consumes.
// Molecule construction, conformer generation, resonance structures, InChI
// derivation and family classification all live behind these interfaces;
// the database treats their results as opaque values.
package toolkit

import "github.com/dreamware/am3db/internal/record"

// Species is one reactant or product
type Species interface {
	Label() string
	// Geometry returns the species' 3D geometry, generating it if needed
	Geometry() (record.Geometry, error)
	// StructureVariants returns the adjacency lists of all representative
	// resonance structures; an error means no structural data is available
	StructureVariants() ([]string, error)
	InChIKey() (string, error)
}

// Description is the toolkit's view of a reaction
type Description struct {
	Label        string
	Reactants    []Species
	Products     []Species
	Multiplicity int
	Charge       int
}

// Classifier determines the kinetics family of a reaction
type Classifier interface {
	// ClassifyFamily returns the family label, or false if none matches
	ClassifyFamily(d Description) (string, bool)
}

// Representation is an opaque underlying reaction representation produced
// and consumed by a RoleLabeler.
type Representation interface{}

// RoleLabeler maps canonical role labels (*1, *2, ...) to atom indices
type RoleLabeler interface {
	// Representations returns every underlying representation derivable for
	// the reaction, or nil if none is
	Representations(d Description) []Representation
	LabelAtomRoles(d Description, rep Representation) (reactants, products record.RoleLabels, err error)
}

// Geometries holds the conformers stored for a reaction, one per species in
// description order.
type Geometries struct {
	Reactants []record.Geometry
	Products  []record.Geometry
}

// AtomMapper computes the atom map of a reaction.
// It must map the given geometries rather than generate its own, so the
// stored map matches the stored coordinates.
type AtomMapper interface {
	MapAtoms(d Description, geo Geometries) ([]int, error)
}
