package toolkit

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dreamware/am3db/internal/record"
)

// ErrNoData is returned by static species for fields the file leaves empty
var ErrNoData = errors.New("no data")

// SpeciesEntry is a species with precomputed toolkit results
type SpeciesEntry struct {
	Name           string           `yaml:"label"`
	Key            string           `yaml:"inchi_key"`
	AdjacencyLists []string         `yaml:"adjacency_lists"`
	XYZ            *record.Geometry `yaml:"xyz"`
}

var _ Species = (*SpeciesEntry)(nil)

// Label returns the species name
func (s *SpeciesEntry) Label() string { return s.Name }

// Geometry returns the stored conformer, or ErrNoData if the entry has none
func (s *SpeciesEntry) Geometry() (record.Geometry, error) {
	if s.XYZ == nil {
		return record.Geometry{}, fmt.Errorf("%s geometry: %w", s.Name, ErrNoData)
	}
	return *s.XYZ, nil
}

// StructureVariants returns the stored adjacency lists, or ErrNoData if
// there are none
func (s *SpeciesEntry) StructureVariants() ([]string, error) {
	if len(s.AdjacencyLists) == 0 {
		return nil, fmt.Errorf("%s adjacency list: %w", s.Name, ErrNoData)
	}
	return s.AdjacencyLists, nil
}

// InChIKey returns the stored key, or ErrNoData if it is blank
func (s *SpeciesEntry) InChIKey() (string, error) {
	if s.Key == "" {
		return "", fmt.Errorf("%s inchi key: %w", s.Name, ErrNoData)
	}
	return s.Key, nil
}

// Entry is a reaction with precomputed toolkit results
type Entry struct {
	Label        string            `yaml:"label"`
	Family       string            `yaml:"family"`
	Multiplicity int               `yaml:"multiplicity"`
	Charge       int               `yaml:"charge"`
	Reactants    []*SpeciesEntry   `yaml:"reactants"`
	Products     []*SpeciesEntry   `yaml:"products"`
	AtomMap      []int             `yaml:"atom_map"`
	RLabels      record.RoleLabels `yaml:"r_labels"`
	PLabels      record.RoleLabels `yaml:"p_labels"`
}

// Description converts the entry to the toolkit's reaction view
func (e *Entry) Description() Description {
	d := Description{
		Label:        e.label(),
		Multiplicity: e.Multiplicity,
		Charge:       e.Charge,
	}
	for _, s := range e.Reactants {
		d.Reactants = append(d.Reactants, s)
	}
	for _, s := range e.Products {
		d.Products = append(d.Products, s)
	}
	return d
}

func (e *Entry) label() string {
	if e.Label != "" {
		return e.Label
	}
	side := func(species []*SpeciesEntry) string {
		labels := make([]string, len(species))
		for i, s := range species {
			labels[i] = s.Name
		}
		return strings.Join(labels, " + ")
	}
	return side(e.Reactants) + " <=> " + side(e.Products)
}

// Static is a toolkit backed by a file of precomputed reactions.
// It implements Classifier, RoleLabeler and AtomMapper by reaction label.
type Static struct {
	Entries []*Entry `yaml:"reactions"`
	byLabel map[string]*Entry
}

var (
	_ Classifier  = (*Static)(nil)
	_ RoleLabeler = (*Static)(nil)
	_ AtomMapper  = (*Static)(nil)
)

// NewStatic indexes entries by label
func NewStatic(entries []*Entry) *Static {
	s := &Static{Entries: entries}
	s.index()
	return s
}

// LoadStatic reads a static toolkit file
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read toolkit file: %w", err)
	}
	s := &Static{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s.index()
	return s, nil
}

func (s *Static) index() {
	s.byLabel = make(map[string]*Entry, len(s.Entries))
	for _, e := range s.Entries {
		s.byLabel[e.label()] = e
	}
}

// TrainingEntries returns the entries of a family in file order
func (s *Static) TrainingEntries(family string) ([]*Entry, error) {
	var entries []*Entry
	for _, e := range s.Entries {
		if e.Family == family {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("family %q has no training reactions", family)
	}
	return entries, nil
}

// ClassifyFamily returns the family declared for the reaction
func (s *Static) ClassifyFamily(d Description) (string, bool) {
	e, ok := s.byLabel[d.Label]
	if !ok || e.Family == "" {
		return "", false
	}
	return e.Family, true
}

// Representations returns the entry itself when it declares role labels
func (s *Static) Representations(d Description) []Representation {
	e, ok := s.byLabel[d.Label]
	if !ok || (e.RLabels == nil && e.PLabels == nil) {
		return nil
	}
	return []Representation{e}
}

// LabelAtomRoles returns the labels declared on the entry
func (s *Static) LabelAtomRoles(_ Description, rep Representation) (record.RoleLabels, record.RoleLabels, error) {
	e, ok := rep.(*Entry)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected representation %T", rep)
	}
	return e.RLabels, e.PLabels, nil
}

// MapAtoms returns the atom map declared on the entry. The declared map
// refers to the entry's own geometries, so geo is not consulted.
func (s *Static) MapAtoms(d Description, _ Geometries) ([]int, error) {
	e, ok := s.byLabel[d.Label]
	if !ok || e.AtomMap == nil {
		return nil, fmt.Errorf("%s atom map: %w", d.Label, ErrNoData)
	}
	return e.AtomMap, nil
}
