package toolkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/am3db/internal/record"
)

func loadTestdata(t *testing.T) *Static {
	t.Helper()
	s, err := LoadStatic("testdata/reactions.yml")
	require.NoError(t, err)
	return s
}

// TestLoadStatic tests reading a toolkit file
func TestLoadStatic(t *testing.T) {
	s := loadTestdata(t)
	require.Len(t, s.Entries, 3)

	d := s.Entries[1].Description()
	assert.Equal(t, "OH + NCC <=> H2O + NjCC", d.Label)
	assert.Len(t, d.Reactants, 2)
	assert.Len(t, d.Products, 2)
	assert.Equal(t, 2, d.Multiplicity)

	_, err := LoadStatic("testdata/missing.yml")
	assert.Error(t, err)
}

// TestStaticCapabilities tests the toolkit interfaces on static entries
func TestStaticCapabilities(t *testing.T) {
	s := loadTestdata(t)
	full := s.Entries[0].Description()
	sparse := s.Entries[2].Description()

	t.Run("classification", func(t *testing.T) {
		family, ok := s.ClassifyFamily(full)
		assert.True(t, ok)
		assert.Equal(t, "intra_H_migration", family)

		_, ok = s.ClassifyFamily(Description{Label: "A <=> B"})
		assert.False(t, ok)
	})

	t.Run("role labels", func(t *testing.T) {
		reps := s.Representations(full)
		require.Len(t, reps, 1)
		r, p, err := s.LabelAtomRoles(full, reps[0])
		require.NoError(t, err)
		assert.Equal(t, record.RoleLabels{"*1": 2, "*2": 0, "*3": 4}, r)
		assert.Equal(t, record.RoleLabels{"*1": 0, "*2": 2, "*3": 9}, p)

		assert.Nil(t, s.Representations(sparse))
		_, _, err = s.LabelAtomRoles(full, "bogus")
		assert.Error(t, err)
	})

	t.Run("atom maps", func(t *testing.T) {
		m, err := s.MapAtoms(full, Geometries{})
		require.NoError(t, err)
		assert.Len(t, m, 10)

		_, err = s.MapAtoms(sparse, Geometries{})
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("species data", func(t *testing.T) {
		h := sparse.Reactants[1]
		_, err := h.InChIKey()
		assert.ErrorIs(t, err, ErrNoData)
		_, err = h.Geometry()
		assert.ErrorIs(t, err, ErrNoData)
		_, err = h.StructureVariants()
		assert.ErrorIs(t, err, ErrNoData)

		oh := s.Entries[1].Reactants[0]
		key, err := oh.InChIKey()
		require.NoError(t, err)
		assert.Equal(t, "TUJKJAMUKRIRHC-UHFFFAOYSA-N", key)
		g, err := oh.Geometry()
		require.NoError(t, err)
		assert.Equal(t, 2, g.Atoms())
	})
}

// TestTrainingEntries tests grouping entries by family
func TestTrainingEntries(t *testing.T) {
	s := loadTestdata(t)

	entries, err := s.TrainingEntries("H_Abstraction")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = s.TrainingEntries("Disproportionation")
	assert.Error(t, err)
}
