package quad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/plate-rectify/internal/detection"
	"github.com/ironsheep/plate-rectify/internal/geometry"
)

func classify(segs ...geometry.Segment) detection.Classified {
	return detection.Classify(segs, detection.DefaultConfig())
}

// rectSegments returns top, right, bottom, left sides of an axis-aligned
// rectangle, each shortened by gap at both ends.
func rectSegments(x, y, w, h, gap float64) []geometry.Segment {
	return []geometry.Segment{
		geometry.Seg(x+gap, y, x+w-gap, y),
		geometry.Seg(x+w, y+gap, x+w, y+h-gap),
		geometry.Seg(x+w-gap, y+h, x+gap, y+h),
		geometry.Seg(x, y+h-gap, x, y+gap),
	}
}

func strategies() []Strategy {
	cfg := DefaultConfig()
	return []Strategy{
		&Enumerate{ConnectDistance: cfg.ConnectDistance},
		&NearestNeighbor{MaxCornerDistance: cfg.MaxCornerDistance},
	}
}

func TestPartialRectangle_Accepted(t *testing.T) {
	c := classify(
		geometry.Seg(0, 0, 200, 0),
		geometry.Seg(0, 0, 0, 80),
		geometry.Seg(200, 0, 200, 80),
	)

	for _, s := range strategies() {
		t.Run(s.Name(), func(t *testing.T) {
			hyps := s.Search(c)
			require.Len(t, hyps, 1)
			assert.InDelta(t, 180, hyps[0].AngleSum, 1e-6)

			sel, err := NewSelector(DefaultConfig()).Select(hyps)
			require.NoError(t, err)
			assert.Equal(t, geometry.CornerSet{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 80}, {X: 0, Y: 80}}, sel.Corners)
		})
	}
}

func TestPartialRectangle_RejectedWhenSkewed(t *testing.T) {
	rad := 50 * math.Pi / 180
	c := classify(
		geometry.Seg(0, 0, 200, 0),
		geometry.Seg(0, 0, 0, 80),
		geometry.Seg(200, 0, 200+80*math.Cos(rad), 80*math.Sin(rad)),
	)
	require.Len(t, c.Vertical, 2)

	for _, s := range strategies() {
		t.Run(s.Name(), func(t *testing.T) {
			hyps := s.Search(c)
			require.NotEmpty(t, hyps)

			_, err := NewSelector(DefaultConfig()).Select(hyps)
			assert.ErrorIs(t, err, ErrNoValidQuadrilateral)
		})
	}
}

func TestCompleteRectangle_PrefersFourLines(t *testing.T) {
	c := classify(rectSegments(10, 20, 300, 100, 4)...)

	for _, s := range strategies() {
		t.Run(s.Name(), func(t *testing.T) {
			sel, err := NewSelector(DefaultConfig()).Select(s.Search(c))
			require.NoError(t, err)
			assert.Len(t, sel.Hypothesis.Lines, 4)
			assert.InDelta(t, 360, sel.Hypothesis.AngleSum, 1e-6)
			assert.Equal(t, geometry.Pt(10, 20), sel.Corners[geometry.TopLeft])
			assert.Equal(t, geometry.Pt(310, 120), sel.Corners[geometry.BottomRight])
		})
	}
}

func TestNearestNeighbor_OneHypothesisPerRectangle(t *testing.T) {
	c := classify(rectSegments(0, 0, 200, 80, 3)...)

	hyps := (&NearestNeighbor{MaxCornerDistance: 25}).Search(c)

	require.Len(t, hyps, 1)
	assert.Equal(t, []int{0, 1, 2, 3}, hyps[0].IDs())
}

func TestNearestNeighbor_OneToOneSlots(t *testing.T) {
	c := classify(
		geometry.Seg(0, 0, 100, 0),
		geometry.Seg(0, 5, 100, 5),
		geometry.Seg(100, 0, 100, 60),
	)
	nn := &NearestNeighbor{MaxCornerDistance: 25}
	hs := append([]detection.OrientedLine(nil), c.Horizontal...)
	vs := append([]detection.OrientedLine(nil), c.Vertical...)

	nn.assign(hs, vs, nn.candidates(hs, vs))

	assert.Equal(t, detection.Slot{Line: 2, Distance: 0, OK: true}, hs[0].Neighbors[detection.SideRight])
	assert.False(t, hs[1].Neighbors[detection.SideRight].OK)
	assert.Equal(t, 0, vs[0].Neighbors[detection.SideAbove].Line)
	assert.False(t, vs[0].Neighbors[detection.SideBelow].OK)

	// The classifier output is left untouched.
	assert.False(t, c.Horizontal[0].Neighbors[detection.SideRight].OK)
}

func TestSearch_TooFewLines(t *testing.T) {
	c := classify(geometry.Seg(0, 0, 100, 0), geometry.Seg(0, 0, 0, 50))

	for _, s := range strategies() {
		assert.Empty(t, s.Search(c), s.Name())
	}

	_, err := NewSelector(DefaultConfig()).Select(nil)
	assert.ErrorIs(t, err, ErrNoHypotheses)
	assert.ErrorIs(t, err, detection.ErrNoEvidence)
}

func TestAuto_SwitchesOnLineCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoEnumerateLimit = 3
	s, err := NewStrategy(cfg)
	require.NoError(t, err)
	auto := s.(*Auto)

	small := classify(rectSegments(0, 0, 200, 80, 3)[:3]...)
	large := classify(rectSegments(0, 0, 200, 80, 3)...)

	assert.Equal(t, StrategyEnumerate, auto.pick(small).Name())
	assert.Equal(t, StrategyNearest, auto.pick(large).Name())
	assert.NotEmpty(t, auto.Search(large))

	_, err = NewStrategy(Config{Strategy: "bogus"})
	assert.Error(t, err)
}

func TestSelector_AspectBreaksAreaTie(t *testing.T) {
	square := newHypothesis(classify(rectSegments(0, 0, 100, 100, 2)...).All())
	plate := newHypothesis(classify(rectSegments(0, 0, 141, 71, 2)...).All())

	sel, err := NewSelector(DefaultConfig()).Select([]Hypothesis{square, plate})
	require.NoError(t, err)
	assert.InDelta(t, 141, sel.Hypothesis.Bounds.Dx(), 1e-9)

	// Without a band the earlier hypothesis wins the tie.
	cfg := DefaultConfig()
	cfg.AspectMax = 0
	sel, err = NewSelector(cfg).Select([]Hypothesis{square, plate})
	require.NoError(t, err)
	assert.InDelta(t, 100, sel.Hypothesis.Bounds.Dx(), 1e-9)
}

func TestSelector_LargerAreaWins(t *testing.T) {
	small := newHypothesis(classify(rectSegments(0, 0, 200, 80, 2)...).All())
	large := newHypothesis(classify(rectSegments(0, 0, 300, 40, 2)...).All())

	sel, err := NewSelector(DefaultConfig()).Select([]Hypothesis{small, large})
	require.NoError(t, err)
	assert.InDelta(t, 200, sel.Hypothesis.Bounds.Dx(), 1e-9)
}

func TestSelector_AspectGate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AspectGate = true
	square := newHypothesis(classify(rectSegments(0, 0, 100, 100, 2)...).All())

	assert.False(t, NewSelector(cfg).Accept(square))
	assert.True(t, NewSelector(DefaultConfig()).Accept(square))
}

func TestSelector_IntersectCorners(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CornerMode = CornersIntersect
	c := classify(
		geometry.Seg(5, 0, 195, 0),
		geometry.Seg(0, 5, 0, 80),
		geometry.Seg(200, 5, 200, 80),
	)

	sel, err := NewSelector(cfg).Select((&Enumerate{ConnectDistance: 12}).Search(c))
	require.NoError(t, err)

	want := geometry.CornerSet{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 80}, {X: 0, Y: 80}}
	for i := range want {
		assert.InDelta(t, want[i].X, sel.Corners[i].X, 1e-9)
		assert.InDelta(t, want[i].Y, sel.Corners[i].Y, 1e-9)
	}
}

func TestSelector_FallsBackWhenCornersFail(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CornerMode = CornersIntersect

	// Ranked first by area, but its "vertical" members are parallel to the
	// horizontal one, so no corner can be intersected.
	parallel := Hypothesis{
		Lines: []detection.OrientedLine{
			{Segment: geometry.Seg(0, 0, 400, 0), ID: 10, Orientation: detection.Horizontal},
			{Segment: geometry.Seg(0, 10, 400, 10), ID: 11, Orientation: detection.Vertical},
			{Segment: geometry.Seg(0, 20, 400, 20), ID: 12, Orientation: detection.Vertical},
		},
		Bounds:   geometry.Rect{Min: geometry.Pt(0, 0), Max: geometry.Pt(400, 200)},
		AngleSum: 180,
		Area:     80000,
		Aspect:   2,
	}
	plate := newHypothesis(classify(rectSegments(0, 0, 200, 80, 2)...).All())

	sel, err := NewSelector(cfg).Select([]Hypothesis{parallel, plate})
	require.NoError(t, err)
	assert.Equal(t, plate.IDs(), sel.Hypothesis.IDs())
	assert.Equal(t, 2, sel.Accepted)
	assert.InDelta(t, 200, sel.Corners[geometry.BottomRight].X, 1e-9)

	_, err = NewSelector(cfg).Select([]Hypothesis{parallel})
	assert.ErrorIs(t, err, geometry.ErrDegenerate)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.CornerMode = "hull"
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.AspectMin = 4
	assert.Error(t, bad.Validate())
}
