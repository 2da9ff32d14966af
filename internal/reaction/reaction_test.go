package reaction

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/am3db/internal/record"
	"github.com/dreamware/am3db/internal/review"
	"github.com/dreamware/am3db/internal/toolkit"
)

// stubSpecies counts geometry requests and fails selected capabilities
type stubSpecies struct {
	label       string
	atoms       int
	noInChI     bool
	noStructure bool
	noGeometry  bool
	// drift makes every conformer request return different coordinates
	drift bool
	calls int
}

func (s *stubSpecies) Label() string { return s.label }

func (s *stubSpecies) Geometry() (record.Geometry, error) {
	s.calls++
	if s.noGeometry {
		return record.Geometry{}, errors.New("conformer generation failed")
	}
	g := record.Geometry{}
	for i := 0; i < s.atoms; i++ {
		g.Symbols = append(g.Symbols, "H")
		g.Isotopes = append(g.Isotopes, 1)
		x := float64(i)
		if s.drift {
			x += float64(s.calls) / 10
		}
		g.Coords = append(g.Coords, []float64{x, 0, 0})
	}
	return g, nil
}

func (s *stubSpecies) StructureVariants() ([]string, error) {
	if s.noStructure {
		return nil, errors.New("no molecule")
	}
	return []string{s.label + " A", s.label + " B"}, nil
}

func (s *stubSpecies) InChIKey() (string, error) {
	if s.noInChI {
		return "", errors.New("inchi failed")
	}
	return s.label + "-KEY", nil
}

type fixedFamily string

func (f fixedFamily) ClassifyFamily(toolkit.Description) (string, bool) {
	return string(f), f != ""
}

type countingAllocator struct {
	next  int
	calls int
}

func (a *countingAllocator) NextIndex(string) (int, error) {
	a.calls++
	return a.next, nil
}

type failingAllocator struct{}

func (failingAllocator) NextIndex(string) (int, error) { return 0, errors.New("disk on fire") }

// twoLabeler answers differently per representation and fails on "bad"
type twoLabeler struct{}

func (twoLabeler) Representations(toolkit.Description) []toolkit.Representation {
	return []toolkit.Representation{"first", "second", "bad"}
}

func (twoLabeler) LabelAtomRoles(_ toolkit.Description, rep toolkit.Representation) (record.RoleLabels, record.RoleLabels, error) {
	switch rep {
	case "first":
		return record.RoleLabels{"*1": 0}, record.RoleLabels{"*1": 1}, nil
	case "second":
		return record.RoleLabels{"*1": 5}, record.RoleLabels{"*1": 6}, nil
	}
	return nil, nil, errors.New("no template")
}

// geometryMapper records the geometries it was asked to map
type geometryMapper struct {
	seen []toolkit.Geometries
}

func (m *geometryMapper) MapAtoms(_ toolkit.Description, geo toolkit.Geometries) ([]int, error) {
	m.seen = append(m.seen, geo)
	n := 0
	for _, g := range geo.Reactants {
		n += g.Atoms()
	}
	atomMap := make([]int, n)
	for i := range atomMap {
		atomMap[i] = n - 1 - i
	}
	return atomMap, nil
}

func newTestReaction(species ...*stubSpecies) *Reaction {
	d := toolkit.Description{Label: "R <=> P", Multiplicity: 2}
	d.Reactants = []toolkit.Species{species[0]}
	d.Products = []toolkit.Species{species[1]}
	return New(d, Toolkit{Classifier: fixedFamily("fam")}, nil)
}

// TestNew tests construction defaults
func TestNew(t *testing.T) {
	r := newTestReaction(&stubSpecies{label: "R", atoms: 2}, &stubSpecies{label: "P", atoms: 2})
	assert.Equal(t, "fam", r.Family)
	assert.Equal(t, review.Unreviewed, r.Review.State())
	assert.NotNil(t, r.Review.RejectedReasons)
	assert.NotNil(t, r.Clustering)

	_, ok := r.Index()
	assert.False(t, ok)

	unclassified := New(toolkit.Description{}, Toolkit{}, nil)
	assert.Empty(t, unclassified.Family)
}

// TestResolveIndex tests explicit memoized index allocation
func TestResolveIndex(t *testing.T) {
	t.Run("allocates once", func(t *testing.T) {
		r := newTestReaction(&stubSpecies{label: "R"}, &stubSpecies{label: "P"})
		alloc := &countingAllocator{next: 12}

		index, err := r.ResolveIndex(alloc)
		require.NoError(t, err)
		assert.Equal(t, 12, index)

		alloc.next = 99
		index, err = r.ResolveIndex(alloc)
		require.NoError(t, err)
		assert.Equal(t, 12, index)
		assert.Equal(t, 1, alloc.calls)
	})

	t.Run("explicit index wins", func(t *testing.T) {
		r := newTestReaction(&stubSpecies{label: "R"}, &stubSpecies{label: "P"})
		r.SetIndex(7)
		alloc := &countingAllocator{next: 12}

		index, err := r.ResolveIndex(alloc)
		require.NoError(t, err)
		assert.Equal(t, 7, index)
		assert.Zero(t, alloc.calls)
	})

	t.Run("missing family", func(t *testing.T) {
		r := New(toolkit.Description{}, Toolkit{}, nil)
		_, err := r.ResolveIndex(&countingAllocator{})
		assert.ErrorIs(t, err, ErrMissingFamily)
	})

	t.Run("allocation failure is not memoized", func(t *testing.T) {
		r := newTestReaction(&stubSpecies{label: "R"}, &stubSpecies{label: "P"})
		_, err := r.ResolveIndex(failingAllocator{})
		assert.Error(t, err)
		_, ok := r.Index()
		assert.False(t, ok)
	})
}

// TestEncode tests the record codec
func TestEncode(t *testing.T) {
	t.Run("static toolkit reaction", func(t *testing.T) {
		s, err := toolkit.LoadStatic("../toolkit/testdata/reactions.yml")
		require.NoError(t, err)
		r := New(s.Entries[1].Description(), Toolkit{Classifier: s, Labeler: s, Mapper: s}, nil)
		r.Review.ApprovedBy = record.NameList{"user_1"}
		r.Review.RejectedBy = record.NameList{"user_2"}
		r.Review.RejectedReasons = []string{"Not sure"}

		rec, err := r.Encode()
		require.NoError(t, err)

		assert.Equal(t, "H_Abstraction", r.Family)
		assert.Equal(t, []string{"TUJKJAMUKRIRHC-UHFFFAOYSA-N", "QUSNBJAOOMFDIB-UHFFFAOYSA-N"}, rec.RInChIKeys)
		assert.Equal(t, []string{"XLYOFNOQVPJJNP-UHFFFAOYSA-N", "RZRWAZWNUOVMAY-UHFFFAOYSA-N"}, rec.PInChIKeys)
		assert.Len(t, rec.RAdjacencyLists, 2)
		assert.Len(t, rec.PAdjacencyLists, 2)
		assert.Equal(t, []string{"O", "H"}, rec.RXYZ[0].Symbols)
		assert.Equal(t, record.RoleLabels{"*1": 2, "*2": 11, "*3": 0}, rec.RRMGLabels)
		assert.Equal(t, record.RoleLabels{"*1": 3, "*2": 1, "*3": 0}, rec.PRMGLabels)
		assert.Equal(t, record.AtomMaps{{0, 1, 3, 4, 5, 2, 6, 8, 7, 11, 9, 10}}, rec.AtomMaps)
		assert.Equal(t, [][]int{}, rec.Clustering)
		assert.Equal(t, record.NameList{"user_1"}, rec.ApprovedBy)
		assert.Equal(t, record.NameList{"user_2"}, rec.RejectedBy)
		assert.Equal(t, []string{"Not sure"}, rec.RejectedReasons)
	})

	t.Run("unreviewed reaction keeps nulls", func(t *testing.T) {
		r := newTestReaction(&stubSpecies{label: "R", atoms: 3}, &stubSpecies{label: "P", atoms: 3})
		rec, err := r.Encode()
		require.NoError(t, err)

		assert.Nil(t, rec.ApprovedBy)
		assert.Nil(t, rec.RejectedBy)
		assert.Equal(t, []string{}, rec.RejectedReasons)
		assert.Nil(t, rec.RRMGLabels)
		assert.Nil(t, rec.AtomMaps)
		assert.Equal(t, [][]string{{"R A", "R B"}}, rec.RAdjacencyLists)
	})

	t.Run("geometry is fetched once and cached", func(t *testing.T) {
		rs, ps := &stubSpecies{label: "R", atoms: 3}, &stubSpecies{label: "P", atoms: 3}
		r := newTestReaction(rs, ps)
		_, err := r.Encode()
		require.NoError(t, err)
		_, err = r.Encode()
		require.NoError(t, err)
		assert.Equal(t, 1, rs.calls)
		assert.Equal(t, 1, ps.calls)
	})

	t.Run("mapper sees the stored conformers", func(t *testing.T) {
		rs := &stubSpecies{label: "R", atoms: 3, drift: true}
		ps := &stubSpecies{label: "P", atoms: 3, drift: true}
		r := newTestReaction(rs, ps)
		mapper := &geometryMapper{}
		r.tk.Mapper = mapper

		rec, err := r.Encode()
		require.NoError(t, err)

		require.Len(t, mapper.seen, 1)
		if diff := cmp.Diff(rec.RXYZ, mapper.seen[0].Reactants); diff != "" {
			t.Errorf("reactant geometries mismatch (-stored +mapped):\n%s", diff)
		}
		if diff := cmp.Diff(rec.PXYZ, mapper.seen[0].Products); diff != "" {
			t.Errorf("product geometries mismatch (-stored +mapped):\n%s", diff)
		}
		assert.Equal(t, 1, rs.calls)
		assert.Equal(t, 1, ps.calls)
		assert.Equal(t, record.AtomMaps{{2, 1, 0}}, rec.AtomMaps)
	})

	t.Run("geometry failure is fatal", func(t *testing.T) {
		r := newTestReaction(&stubSpecies{label: "R", noGeometry: true}, &stubSpecies{label: "P"})
		_, err := r.Encode()
		assert.Error(t, err)
	})

	t.Run("derivation failures fall back to empty", func(t *testing.T) {
		r := newTestReaction(
			&stubSpecies{label: "R", atoms: 1, noInChI: true, noStructure: true},
			&stubSpecies{label: "P", atoms: 1},
		)
		rec, err := r.Encode()
		require.NoError(t, err)

		assert.Equal(t, []string{}, rec.RInChIKeys)
		assert.Equal(t, [][]string{}, rec.RAdjacencyLists)
		assert.Equal(t, []string{"P-KEY"}, rec.PInChIKeys)
		assert.Equal(t, [][]string{{"P A", "P B"}}, rec.PAdjacencyLists)
	})

	t.Run("single atom map is wrapped", func(t *testing.T) {
		r := newTestReaction(&stubSpecies{label: "R", atoms: 3}, &stubSpecies{label: "P", atoms: 3})
		r.AtomMap = []int{2, 0, 1}
		rec, err := r.Encode()
		require.NoError(t, err)
		assert.Equal(t, record.AtomMaps{{2, 0, 1}}, rec.AtomMaps)

		r.AtomMaps = record.AtomMaps{{2, 0, 1}, {2, 1, 0}}
		rec, err = r.Encode()
		require.NoError(t, err)
		assert.Len(t, rec.AtomMaps, 2)
	})

	t.Run("last successful role labeling wins", func(t *testing.T) {
		r := newTestReaction(&stubSpecies{label: "R", atoms: 1}, &stubSpecies{label: "P", atoms: 1})
		r.tk.Labeler = twoLabeler{}
		rec, err := r.Encode()
		require.NoError(t, err)
		assert.Equal(t, record.RoleLabels{"*1": 5}, rec.RRMGLabels)
		assert.Equal(t, record.RoleLabels{"*1": 6}, rec.PRMGLabels)
	})

	t.Run("invariant violation is rejected", func(t *testing.T) {
		r := newTestReaction(&stubSpecies{label: "R", atoms: 1}, &stubSpecies{label: "P", atoms: 1})
		r.Review.RejectedBy = record.NameList{"a", "b"}
		r.Review.RejectedReasons = []string{"only one"}
		_, err := r.Encode()
		assert.Error(t, err)
	})
}

// TestFromRecord tests rebuilding a reaction from a stored record
func TestFromRecord(t *testing.T) {
	stored := record.Record{
		Multiplicity:    2,
		RInChIKeys:      []string{"A"},
		PInChIKeys:      []string{"B"},
		RAdjacencyLists: [][]string{{"a"}},
		PAdjacencyLists: [][]string{{"b"}},
		RXYZ:            []record.Geometry{{Symbols: []string{"H"}, Isotopes: []int{1}, Coords: [][]float64{{0, 0, 0}}}},
		PXYZ:            []record.Geometry{{Symbols: []string{"H"}, Isotopes: []int{1}, Coords: [][]float64{{1, 0, 0}}}},
		RRMGLabels:      record.RoleLabels{"*1": 0},
		AtomMaps:        record.AtomMaps{{0}},
		RejectedReasons: []string{},
		Clustering:      [][]int{},
	}

	r := FromRecord("fam", 42, stored, nil)
	index, ok := r.Index()
	require.True(t, ok)
	assert.Equal(t, 42, index)
	assert.Equal(t, "fam", r.Family)

	rec, err := r.Encode()
	require.NoError(t, err)
	if diff := cmp.Diff(stored, rec); diff != "" {
		t.Errorf("re-encoded record mismatch (-want +got):\n%s", diff)
	}

	// Index is fixed: no allocation happens
	alloc := &countingAllocator{next: 1}
	index, err = r.ResolveIndex(alloc)
	require.NoError(t, err)
	assert.Equal(t, 42, index)
	assert.Zero(t, alloc.calls)

	r.Review.ApprovedBy = record.NameList{"x"}
	rec, err = r.Encode()
	require.NoError(t, err)
	assert.Equal(t, record.NameList{"x"}, rec.ApprovedBy)
	assert.Equal(t, stored.RInChIKeys, rec.RInChIKeys)
}
