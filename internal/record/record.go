package record

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Geometry is the 3D structure of one species as produced by the toolkit.
type Geometry struct {
	Symbols  []string    `yaml:"symbols"`
	Isotopes []int       `yaml:"isotopes"`
	Coords   [][]float64 `yaml:"coords"`
}

// Atoms returns the number of atoms described by the geometry.
func (g Geometry) Atoms() int {
	return len(g.Symbols)
}

// Record is the persisted form of one reaction inside a shard file.
// The record's index is the shard key and its family is implied by the
// shard filename, so neither is repeated in the body.
type Record struct {
	Multiplicity    int        `yaml:"multiplicity"`
	Charge          int        `yaml:"charge"`
	RInChIKeys      []string   `yaml:"r_inchi_keys"`
	PInChIKeys      []string   `yaml:"p_inchi_keys"`
	RAdjacencyLists [][]string `yaml:"r_adjacency_lists"`
	PAdjacencyLists [][]string `yaml:"p_adjacency_lists"`
	RXYZ            []Geometry `yaml:"r_xyz"`
	PXYZ            []Geometry `yaml:"p_xyz"`
	RRMGLabels      RoleLabels `yaml:"r_rmg_labels"`
	PRMGLabels      RoleLabels `yaml:"p_rmg_labels"`
	AtomMaps        AtomMaps   `yaml:"atom_maps"`
	Clustering      [][]int    `yaml:"clustering"`
	ApprovedBy      NameList   `yaml:"approved_by"`
	RejectedBy      NameList   `yaml:"rejected_by"`
	RejectedReasons []string   `yaml:"rejected_reasons"`
}

// Validate checks the invariants a record must hold before it is written.
//
// Every rejecting reviewer needs a reason. Reasons may outnumber reviewers:
// an admin override clears rejected_by but keeps rejected_reasons, so a
// later rejection starts a shorter rejected_by list.
func (r *Record) Validate() error {
	if r.RejectedBy != nil && len(r.RejectedBy) > len(r.RejectedReasons) {
		return fmt.Errorf("rejected_by has %d entries but rejected_reasons has %d",
			len(r.RejectedBy), len(r.RejectedReasons))
	}
	return nil
}

// NameList is an ordered list of reviewer names where nil and empty differ:
// nil encodes as YAML null ("never"), an empty list as [].
type NameList []string

// MarshalYAML keeps nil lists as null instead of [].
func (l NameList) MarshalYAML() (interface{}, error) {
	if l == nil {
		return nil, nil
	}
	return []string(l), nil
}

// RoleLabels maps canonical role labels such as "*1" to atom indices.
// nil means the labels could not be determined and encodes as null.
type RoleLabels map[string]int

// MarshalYAML keeps nil maps as null instead of {}.
func (l RoleLabels) MarshalYAML() (interface{}, error) {
	if l == nil {
		return nil, nil
	}
	return map[string]int(l), nil
}

// AtomMaps is the list of symmetry-equivalent atom maps of a reaction.
// Position i of each map is the product atom matched to reactant atom i.
type AtomMaps [][]int

// WrapAtomMap turns a single flat atom map into the one-element nested shape.
// A nil map stays nil.
func WrapAtomMap(flat []int) AtomMaps {
	if flat == nil {
		return nil
	}
	return AtomMaps{flat}
}

// MarshalYAML keeps nil maps as null.
func (m AtomMaps) MarshalYAML() (interface{}, error) {
	if m == nil {
		return nil, nil
	}
	return [][]int(m), nil
}

// UnmarshalYAML accepts the nested shape and a flat list of integers, which
// is wrapped into a single map.
func (m *AtomMaps) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: atom_maps must be a sequence", node.Line)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.ScalarNode {
		var flat []int
		if err := node.Decode(&flat); err != nil {
			return err
		}
		*m = AtomMaps{flat}
		return nil
	}
	var nested [][]int
	if err := node.Decode(&nested); err != nil {
		return err
	}
	if nested == nil {
		nested = [][]int{}
	}
	*m = nested
	return nil
}
