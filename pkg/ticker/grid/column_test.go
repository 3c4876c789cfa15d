package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A", "B"},
		{"C", "D"},
		{"Y", "Z"},
		{"Z", "AA"},
		{"AA", "AB"},
		{"AZ", "BA"},
		{"CC", "CD"},
		{"IQ", "IR"},
		{"ZZ", "AAA"},
		{"AZZ", "BAA"},
		{"ZZZ", "AAAA"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NextColumn(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextColumnStepsFromA(t *testing.T) {
	col := "A"
	for i := 0; i < 26; i++ {
		var err error
		col, err = NextColumn(col)
		require.NoError(t, err)
	}
	assert.Equal(t, "AA", col)
}

func TestNextColumnRejectsInvalidLabels(t *testing.T) {
	for _, in := range []string{"", "a", "Ab", "A1", "-", "É"} {
		_, err := NextColumn(in)
		assert.Truef(t, errors.Is(err, ErrInvalidColumn), "input %q: got %v", in, err)
	}
}

func TestColumnIndexAndLabelAgree(t *testing.T) {
	col := "A"
	for n := 1; n <= 800; n++ {
		idx, err := ColumnIndex(col)
		require.NoError(t, err)
		require.Equal(t, n, idx, col)

		label, err := ColumnLabel(n)
		require.NoError(t, err)
		require.Equal(t, col, label)

		col = nextColumn(col)
	}

	_, err := ColumnLabel(0)
	assert.ErrorIs(t, err, ErrInvalidColumn)
}

func TestParseCoordinateAndRange(t *testing.T) {
	c, err := ParseCoordinate("BM12")
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Column: "BM", Row: 12}, c)
	assert.Equal(t, "BM12", c.String())
	assert.Equal(t, "BN12", c.Right().String())

	for _, bad := range []string{"", "12", "B", "b2", "B0", "B-1"} {
		_, err := ParseCoordinate(bad)
		assert.Errorf(t, err, "input %q", bad)
	}

	r, err := ParseRange("A3:CC103")
	require.NoError(t, err)
	assert.Equal(t, "A3:CC103", r.String())
	assert.True(t, r.Contains(At("B", 50)))
	assert.True(t, r.Contains(At("CC", 103)))
	assert.False(t, r.Contains(At("CD", 50)))
	assert.False(t, r.Contains(At("B", 2)))

	_, err = ParseRange("A3")
	assert.Error(t, err)
}
