package recdesc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type point struct {
	Timestamp int64
	Value     float64
}

type withIndex struct {
	Seq   int64
	Value float64
}

func TestReflectUniformStruct(t *testing.T) {
	d, err := Reflect[point]("")
	require.NoError(t, err)
	require.Equal(t, NoIndexField, d.IndexField)
	require.Len(t, d.Fields, 2)
	require.Equal(t, "Timestamp", d.Fields[0].Name)
	require.Equal(t, "int64", d.Fields[0].TypeTag)
	require.Equal(t, "float64", d.Fields[1].TypeTag)
}

func TestReflectIndexedStruct(t *testing.T) {
	d, err := Reflect[withIndex]("Seq")
	require.NoError(t, err)
	require.Equal(t, 0, d.IndexField)
	require.NoError(t, d.Validate())
}

func TestReflectUnknownIndexFieldErrors(t *testing.T) {
	_, err := Reflect[point]("NoSuchField")
	require.Error(t, err)
}

func TestReflectNonStructErrors(t *testing.T) {
	_, err := Reflect[int64]("")
	require.Error(t, err)
}

type nested struct {
	Outer point
	Flag  bool
}

func TestReflectNestedStruct(t *testing.T) {
	d, err := Reflect[nested]("")
	require.NoError(t, err)
	require.Len(t, d.Fields, 2)
	require.Len(t, d.Fields[0].Children, 2)
	require.Equal(t, 1, d.Fields[0].Children[0].Depth)
}
