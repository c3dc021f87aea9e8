package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(real uintptr, size int) *Record {
	return &Record{Real: real, Size: size, Block: make([]byte, size)}
}

func TestInsertRemove(t *testing.T) {
	tbl := NewTable()
	tbl.Insert(rec(0x1000, 10))
	tbl.Insert(rec(0x2000, 20))
	require.Equal(t, 2, tbl.Len())

	got, ok := tbl.Remove(0x1000)
	require.True(t, ok)
	assert.Equal(t, uintptr(0x1000), got.Real)
	assert.Equal(t, 10, got.Size)
	assert.Equal(t, 1, tbl.Len())

	// Removing the same key again is the distinct not-found outcome.
	got, ok = tbl.Remove(0x1000)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRemoveUnknownAddress(t *testing.T) {
	tbl := NewTable()
	got, ok := tbl.Remove(0xdead)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestForEachYieldsExactlyTheLiveSet(t *testing.T) {
	tbl := NewTable()
	want := map[uintptr]bool{0x10: true, 0x20: true, 0x30: true}
	for real := range want {
		tbl.Insert(rec(real, 8))
	}
	tbl.Insert(rec(0x40, 8))
	_, ok := tbl.Remove(0x40)
	require.True(t, ok)

	seen := map[uintptr]bool{}
	tbl.ForEach(func(r *Record) { seen[r.Real] = true })
	assert.Equal(t, want, seen)
}

func TestDrainVisitsAndEmpties(t *testing.T) {
	tbl := NewTable()
	for i := uintptr(1); i <= 5; i++ {
		tbl.Insert(rec(i<<4, int(i)))
	}

	visited := 0
	tbl.Drain(func(*Record) { visited++ })
	assert.Equal(t, 5, visited)
	assert.Equal(t, 0, tbl.Len())
}

func TestSite(t *testing.T) {
	assert.False(t, Site{}.Known())
	assert.True(t, Site{File: "alloc.go", Line: 12}.Known())
	assert.Equal(t, "alloc.go:12", Site{File: "alloc.go", Line: 12}.String())
}
