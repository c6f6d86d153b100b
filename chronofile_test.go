package chronofile

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/veltra/chronofile/engine"
	"github.com/veltra/chronofile/indexed"
	"github.com/veltra/chronofile/recdesc"
	"github.com/veltra/chronofile/uniform"
	"github.com/stretchr/testify/require"
)

type reading struct {
	Seq   int64
	Value float64
}

func TestToTicksFromTicksRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	ticks := ToTicks(now)
	back := FromTicks(ticks)

	require.True(t, now.Equal(back))
}

func TestDescribeBuildsDescriptor(t *testing.T) {
	desc, err := Describe[reading]("")
	require.NoError(t, err)
	require.Equal(t, recdesc.NoIndexField, desc.IndexField)
}

func TestCreateUniformAppendReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.cfile")
	desc, err := Describe[reading]("")
	require.NoError(t, err)

	t0 := ToTicks(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	delta := int64(uniform.TicksPerSecond)

	f, err := CreateUniform(path, desc, "readings", t0, delta)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.AppendRange(t0, []reading{{Value: 1}, {Value: 2}, {Value: 3}}))

	got := make([]reading, 3)
	require.NoError(t, f.Engine.ReadRange(0, got))
	require.Equal(t, 3.0, got[2].Value)

	require.NoError(t, f.Close())

	reopened, err := OpenUniform[reading](path, engine.ModeRead, desc)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, int64(3), reopened.Count())
}

func TestCreateIndexedAppendAndSearch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.cfile")
	desc, err := Describe[reading]("Seq")
	require.NoError(t, err)

	f, err := CreateIndexed(path, desc, "readings", indexed.IndexFunc[reading](func(r reading) int64 { return r.Seq }))
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.AppendRange([]reading{{Seq: 1}, {Seq: 2}, {Seq: 3}}))
	require.Equal(t, int64(1), f.Search(2))
}
