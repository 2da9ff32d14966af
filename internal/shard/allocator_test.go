package shard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dreamware/am3db/internal/record"
	"github.com/dreamware/am3db/internal/storage"
)

// TestAllocatorNextIndex tests lazy index allocation
func TestAllocatorNextIndex(t *testing.T) {
	t.Run("family without shards starts at zero", func(t *testing.T) {
		a := NewAllocator(storage.NewMemoryStore(), nil)
		next, err := a.NextIndex("H_Abstraction")
		require.NoError(t, err)
		assert.Equal(t, 0, next)
	})

	t.Run("one past the highest index", func(t *testing.T) {
		mem := storage.NewMemoryStore()
		s := New("fam", 0)
		for i := 0; i <= 41; i++ {
			s.Put(i, record.Record{})
		}
		require.NoError(t, s.Save(mem))

		next, err := NewAllocator(mem, nil).NextIndex("fam")
		require.NoError(t, err)
		assert.Equal(t, 42, next)
	})

	t.Run("only the highest shard is scanned", func(t *testing.T) {
		a := NewAllocator(testdataStore(), nil)
		next, err := a.NextIndex("intra_H_migration")
		require.NoError(t, err)
		assert.Equal(t, 502, next)

		next, err = a.NextIndex("H_Abstraction")
		require.NoError(t, err)
		assert.Equal(t, 2, next)
	})

	t.Run("empty highest shard", func(t *testing.T) {
		mem := storage.NewMemoryStore()
		require.NoError(t, mem.Put("fam_0.yml", []byte("")))

		next, err := NewAllocator(mem, nil).NextIndex("fam")
		require.NoError(t, err)
		assert.Equal(t, 0, next)
	})

	t.Run("unnumbered files are skipped with a warning", func(t *testing.T) {
		mem := storage.NewMemoryStore()
		s := New("fam", 0)
		s.Put(7, record.Record{})
		require.NoError(t, s.Save(mem))
		require.NoError(t, mem.Put("fam_0_back.yml", []byte("9999: {}\n")))

		core, logs := observer.New(zap.WarnLevel)
		next, err := NewAllocator(mem, zap.New(core)).NextIndex("fam")
		require.NoError(t, err)
		assert.Equal(t, 8, next)
		assert.Equal(t, 1, logs.FilterMessage("skipping file that is not a shard").Len())
	})

	t.Run("backup copies are not shards", func(t *testing.T) {
		mem := storage.NewMemoryStore()
		s := New("fam", 0)
		s.Put(3, record.Record{})
		require.NoError(t, s.Save(mem))
		require.NoError(t, mem.Put("fam_4.yml.bak", []byte("2400: {}\n")))

		next, err := NewAllocator(mem, nil).NextIndex("fam")
		require.NoError(t, err)
		assert.Equal(t, 4, next)
	})

	t.Run("families containing the label are scanned too", func(t *testing.T) {
		// FamilyFiles matches by substring, so a longer family name that
		// contains the label takes part in the highest-shard choice.
		mem := storage.NewMemoryStore()
		own := New("H_Abstraction", 0)
		own.Put(0, record.Record{})
		own.Put(1, record.Record{})
		require.NoError(t, own.Save(mem))

		other := New("intra_H_Abstraction", 1)
		other.Put(500, record.Record{})
		other.Put(501, record.Record{})
		require.NoError(t, other.Save(mem))

		next, err := NewAllocator(mem, nil).NextIndex("H_Abstraction")
		require.NoError(t, err)
		assert.Equal(t, 502, next)
	})

	t.Run("corrupt highest shard fails", func(t *testing.T) {
		mem := storage.NewMemoryStore()
		require.NoError(t, mem.Put("fam_0.yml", []byte("0: [unterminated\n")))

		_, err := NewAllocator(mem, nil).NextIndex("fam")
		assert.ErrorIs(t, err, ErrCorruptShard)
	})
}
