package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/plate-rectify/internal/geometry"
)

func TestMergeSegments_Colinear(t *testing.T) {
	segs := []geometry.Segment{
		geometry.Seg(0, 0, 50, 0),
		geometry.Seg(40, 1, 100, 1),
	}

	merged := MergeSegments(segs, 8, 0.99)

	require.Len(t, merged, 1)
	assert.Equal(t, geometry.Seg(0, 0, 100, 1), merged[0])
}

func TestMergeSegments_KeepsDistinctLines(t *testing.T) {
	tests := []struct {
		name string
		b    geometry.Segment
	}{
		{"perpendicular", geometry.Seg(0, 0, 0, 50)},
		{"parallel offset", geometry.Seg(0, 20, 50, 20)},
		{"angled", geometry.Seg(0, 0, 50, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := MergeSegments([]geometry.Segment{geometry.Seg(0, 0, 50, 0), tt.b}, 8, 0.99)
			assert.Len(t, merged, 2)
		})
	}
}

func TestMergeSegments_ReversedDirection(t *testing.T) {
	merged := MergeSegments([]geometry.Segment{
		geometry.Seg(0, 10, 60, 10),
		geometry.Seg(120, 11, 50, 11),
	}, 8, 0.99)

	require.Len(t, merged, 1)
	assert.InDelta(t, 120, merged[0].Length(), 0.1)
}

func TestMergeSegments_Idempotent(t *testing.T) {
	segs := []geometry.Segment{
		geometry.Seg(10, 10, 60, 12),
		geometry.Seg(200, 15, 140, 14),
		geometry.Seg(55, 12, 150, 14),
		geometry.Seg(10, 10, 12, 90),
		geometry.Seg(11, 80, 13, 140),
		geometry.Seg(300, 20, 301, 130),
		geometry.Seg(0, 0, 40, 40),
	}

	once := MergeSegments(segs, 8, 0.99)
	twice := MergeSegments(once, 8, 0.99)

	assert.Equal(t, once, twice)
	assert.Less(t, len(once), len(segs))
}

func TestMergeSegments_DoesNotModifyInput(t *testing.T) {
	segs := []geometry.Segment{
		geometry.Seg(0, 0, 50, 0),
		geometry.Seg(40, 1, 100, 1),
	}
	orig := append([]geometry.Segment(nil), segs...)

	MergeSegments(segs, 8, 0.99)

	assert.Equal(t, orig, segs)
}

func TestMergeSegments_Empty(t *testing.T) {
	assert.Empty(t, MergeSegments(nil, 8, 0.99))
}
