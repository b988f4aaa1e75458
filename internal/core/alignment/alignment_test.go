package alignment

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/projection"
)

func f(v float64) domain.OptionalFloat { return domain.Float(v) }

func TestResolve_Defaults(t *testing.T) {
	r := Resolve(domain.AlignmentCorrection{}, 10)
	assert.True(t, r.IsIdentity())
	assert.Equal(t, 1.0, r.Scale)
}

func TestResolve_SumsEveryContainingBand(t *testing.T) {
	rec := domain.AlignmentCorrection{
		LatOffset: f(0.5),
		Dynamic: &domain.DynamicCorrection{
			Bands: []domain.LatitudeBand{
				{MinLat: f(-30), MaxLat: f(30), LatOffset: f(1), LonOffset: f(2)},
				{MinLat: f(0), MaxLat: f(60), LatOffset: f(10), LonOffset: f(20)},
				{MinLat: f(70), MaxLat: f(90), LatOffset: f(100)},
			},
		},
	}

	r := Resolve(rec, 15)
	assert.InDelta(t, 11.5, r.LatOffset, 1e-12)
	assert.InDelta(t, 22, r.LonOffset, 1e-12)

	r = Resolve(rec, -10)
	assert.InDelta(t, 1.5, r.LatOffset, 1e-12)

	r = Resolve(rec, 65)
	assert.InDelta(t, 0.5, r.LatOffset, 1e-12)

	// Bounds are inclusive.
	r = Resolve(rec, 30)
	assert.InDelta(t, 11.5, r.LatOffset, 1e-12)
}

func TestResolve_OpenBandBounds(t *testing.T) {
	rec := domain.AlignmentCorrection{
		Dynamic: &domain.DynamicCorrection{
			Bands: []domain.LatitudeBand{{MinLat: f(45), LonOffset: f(3)}},
		},
	}
	assert.InDelta(t, 3, Resolve(rec, 90).LonOffset, 1e-12)
	assert.Zero(t, Resolve(rec, 44).LonOffset)
}

func TestResolveAt_ZoomInterpolation(t *testing.T) {
	rec := domain.AlignmentCorrection{
		Dynamic: &domain.DynamicCorrection{
			// Deliberately unsorted.
			Zoom: []domain.ZoomBreakpoint{
				{Zoom: f(6), LatOffset: f(20), Pixel: domain.PixelOffset{X: f(4)}},
				{Zoom: f(2), LatOffset: f(10)},
			},
		},
	}

	tests := []struct {
		zoom    float64
		wantLat float64
		wantPx  float64
	}{
		{4, 15, 2},
		{2, 10, 0},
		{6, 20, 4},
		{0, 10, 0},
		{-3, 10, 0},
		{9, 20, 4},
		{3, 12.5, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("zoom %g", tt.zoom), func(t *testing.T) {
			r := ResolveAt(rec, 0, f(tt.zoom))
			assert.InDelta(t, tt.wantLat, r.LatOffset, 1e-12)
			assert.InDelta(t, tt.wantPx, r.PixelX, 1e-12)
			assert.Zero(t, r.LonOffset)
			assert.Zero(t, r.PixelY)
		})
	}

	// Without a zoom the breakpoints do not contribute.
	assert.Zero(t, Resolve(rec, 0).LatOffset)
}

func TestResolveAt_CombinesStaticBandsAndZoom(t *testing.T) {
	rec := domain.AlignmentCorrection{
		LonOffset: f(1),
		Pixel:     domain.PixelOffset{X: f(5), Y: f(-5)},
		Dynamic: &domain.DynamicCorrection{
			Bands: []domain.LatitudeBand{{MinLat: f(-10), MaxLat: f(10), LonOffset: f(2)}},
			Zoom: []domain.ZoomBreakpoint{
				{Zoom: f(0), LonOffset: f(0), Pixel: domain.PixelOffset{Y: f(0)}},
				{Zoom: f(10), LonOffset: f(4), Pixel: domain.PixelOffset{Y: f(10)}},
			},
		},
	}
	r := ResolveAt(rec, 5, f(5))
	assert.InDelta(t, 5, r.LonOffset, 1e-12)
	assert.InDelta(t, 5, r.PixelX, 1e-12)
	assert.InDelta(t, 0, r.PixelY, 1e-12)
}

// Regression: a breakpoint with a missing or corrupt field used to poison the
// whole interpolation with NaN.
func TestResolveAt_MissingFieldsContributeZero(t *testing.T) {
	raw := []byte(`{
		"lat_offset": "oops",
		"scale": null,
		"dynamic": {
			"zoom_breakpoints": [
				{"zoom": 2, "lat_offset": 10},
				{"zoom": 6},
				{"lat_offset": 999}
			],
			"latitude_bands": [
				{"min_lat": -90, "max_lat": 90, "lon_offset": "1.5"},
				{"min_lat": -90, "max_lat": 90, "lon_offset": {"nested": true}}
			]
		}
	}`)
	rec, err := domain.DecodeCorrection(raw)
	require.NoError(t, err)

	r := ResolveAt(rec, 0, f(4))
	assert.InDelta(t, 5, r.LatOffset, 1e-12)
	assert.InDelta(t, 1.5, r.LonOffset, 1e-12)
	assert.Equal(t, 1.0, r.Scale)
	assert.Zero(t, r.PixelX)
}

func TestResolve_ZeroScaleIsIdentityScale(t *testing.T) {
	r := Resolve(domain.AlignmentCorrection{Scale: f(0)}, 0)
	assert.Equal(t, 1.0, r.Scale)
}

func TestStages_Invertible(t *testing.T) {
	stages := []Resolved{
		Identity(),
		{LatOffset: 0.25, LonOffset: -1.5, Scale: 1, PixelX: 3, PixelY: -7},
		{LatOffset: -2, LonOffset: 4, Scale: 0.998, PixelX: -12.5, PixelY: 0.5},
		{LatOffset: 0, LonOffset: 0, Scale: 1.0025},
	}
	points := [][2]float64{{0, 0}, {45.5, -120.25}, {-89.9, 179.9}, {12, -180}}

	for i, r := range stages {
		ll, px := r.Stages()
		for _, p := range points {
			lat, lon := ll.Forward(p[0], p[1])
			lat, lon = ll.Inverse(lat, lon)
			assert.InDelta(t, p[0], lat, 1e-9, "stage %d", i)
			assert.InDelta(t, p[1], lon, 1e-9, "stage %d", i)

			in := projection.Pixel{X: p[1] * 10, Y: p[0] * 10}
			out := px.Inverse(px.Forward(in))
			assert.InDelta(t, in.X, out.X, 1e-9)
			assert.InDelta(t, in.Y, out.Y, 1e-9)
		}
	}
}

func TestTable_LookupOrder(t *testing.T) {
	d := domain.Dataset{ID: "mars-viking", Body: domain.BodyMars, CompatibilityKey: "mars-mdim"}
	table := NewTable(map[string]domain.AlignmentCorrection{
		"body:mars": {LatOffset: f(3)},
	})

	rec, key, src := table.Lookup(d)
	assert.Equal(t, SourceBody, src)
	assert.Equal(t, "body:mars", key)
	assert.InDelta(t, 3, rec.LatOffset.Value, 1e-12)

	table.Set("compat:mars-mdim", domain.AlignmentCorrection{LatOffset: f(2)})
	_, key, src = table.Lookup(d)
	assert.Equal(t, SourceCompat, src)
	assert.Equal(t, "compat:mars-mdim", key)

	table.Set("mars-viking", domain.AlignmentCorrection{LatOffset: f(1)})
	rec, key, src = table.Lookup(d)
	assert.Equal(t, SourceDataset, src)
	assert.Equal(t, "mars-viking", key)
	assert.InDelta(t, 1, rec.LatOffset.Value, 1e-12)

	_, _, src = table.Lookup(domain.Dataset{ID: "moon-lro", Body: domain.BodyMoon})
	assert.Equal(t, SourceNone, src)
	assert.Equal(t, "none", src.String())
}

func TestTable_SetDeleteKeys(t *testing.T) {
	table := NewTable(nil)
	assert.Zero(t, table.Len())

	table.Set("b", domain.AlignmentCorrection{})
	table.Set("a", domain.AlignmentCorrection{})
	assert.Equal(t, []string{"a", "b"}, table.Keys())

	assert.True(t, table.Delete("a"))
	assert.False(t, table.Delete("a"))
	assert.Equal(t, []string{"b"}, table.Keys())

	table.Merge(map[string]domain.AlignmentCorrection{"c": {}})
	assert.Equal(t, []string{"b", "c"}, table.Keys())
}

func TestTable_GetReturnsCopy(t *testing.T) {
	table := NewTable(map[string]domain.AlignmentCorrection{
		"k": {Dynamic: &domain.DynamicCorrection{Bands: []domain.LatitudeBand{{LatOffset: f(1)}}}},
	})
	rec, ok := table.Get("k")
	require.True(t, ok)
	rec.Dynamic.Bands[0].LatOffset = f(99)

	again, _ := table.Get("k")
	assert.InDelta(t, 1, again.Dynamic.Bands[0].LatOffset.Value, 1e-12)
}

func TestTable_ConcurrentReadersDuringWrites(t *testing.T) {
	d := domain.Dataset{ID: "moon-lro", Body: domain.BodyMoon}
	table := NewTable(map[string]domain.AlignmentCorrection{"moon-lro": {LatOffset: f(0)}})
	resolver := NewResolver(table)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 2000; j++ {
				r, src := resolver.Resolve(d, 0, domain.OptionalFloat{})
				if src != SourceDataset {
					t.Errorf("source = %s", src)
					return
				}
				// Writers only ever store whole integers.
				if r.LatOffset != float64(int(r.LatOffset)) {
					t.Errorf("torn read: %v", r.LatOffset)
					return
				}
			}
		}()
	}
	for j := 0; j < 500; j++ {
		table.Set("moon-lro", domain.AlignmentCorrection{LatOffset: f(float64(j))})
	}
	wg.Wait()
}

func TestResolver_ApplyForwardInverse(t *testing.T) {
	d := domain.Dataset{ID: "mars-ctx", Body: domain.BodyMars}
	table := NewTable(map[string]domain.AlignmentCorrection{
		"mars-ctx": {LatOffset: f(0.1), LonOffset: f(-0.2), Scale: f(1.001), Pixel: domain.PixelOffset{X: f(3)}},
	})
	r := NewResolver(table)

	lat, lon, px, src := r.ApplyForward(d, 10, 20, domain.OptionalFloat{})
	assert.Equal(t, SourceDataset, src)
	assert.InDelta(t, 10*1.001+0.1, lat, 1e-12)
	assert.InDelta(t, 20*1.001-0.2, lon, 1e-12)
	assert.Equal(t, PixelStage{DX: 3}, px)

	lat, lon, _ = r.ApplyInverse(d, lat, lon, domain.OptionalFloat{})
	assert.InDelta(t, 10, lat, 1e-9)
	assert.InDelta(t, 20, lon, 1e-9)

	lat, lon, _, src = r.ApplyForward(domain.Dataset{ID: "x", Body: domain.BodyCeres}, 10, 20, domain.OptionalFloat{})
	assert.Equal(t, SourceNone, src)
	assert.Equal(t, 10.0, lat)
	assert.Equal(t, 20.0, lon)
}

func TestResolveInverseAt_PointPushedOutOfItsBand(t *testing.T) {
	rec := domain.AlignmentCorrection{
		Dynamic: &domain.DynamicCorrection{
			Bands: []domain.LatitudeBand{{MinLat: f(0), MaxLat: f(10), LatOffset: f(5)}},
		},
	}

	fwd := Resolve(rec, 8)
	require.InDelta(t, 5, fwd.LatOffset, 1e-12)
	ll, _ := fwd.Stages()
	corrected, _ := ll.Forward(8, 0)
	require.InDelta(t, 13, corrected, 1e-12)

	inv := ResolveInverseAt(rec, corrected, domain.OptionalFloat{})
	assert.Equal(t, fwd, inv)
	ll, _ = inv.Stages()
	lat, _ := ll.Inverse(corrected, 0)
	assert.InDelta(t, 8, lat, 1e-12)
}

func TestResolveInverseAt_OverlappingBands(t *testing.T) {
	rec := domain.AlignmentCorrection{
		Scale: f(1.01),
		Dynamic: &domain.DynamicCorrection{
			Bands: []domain.LatitudeBand{
				{MinLat: f(0), MaxLat: f(30), LatOffset: f(1)},
				{MinLat: f(0), MaxLat: f(60), LatOffset: f(10)},
			},
		},
	}
	for _, lat := range []float64{-20, 5, 15, 29, 45, 70} {
		t.Run(fmt.Sprint(lat), func(t *testing.T) {
			ll, _ := Resolve(rec, lat).Stages()
			corrected, _ := ll.Forward(lat, 0)
			ll, _ = ResolveInverseAt(rec, corrected, domain.OptionalFloat{}).Stages()
			got, _ := ll.Inverse(corrected, 0)
			assert.InDelta(t, lat, got, 1e-9)
		})
	}
}

func TestResolveInverseAt_NoBandsMatchesResolve(t *testing.T) {
	rec := domain.AlignmentCorrection{LatOffset: f(2), Pixel: domain.PixelOffset{X: f(4)}}
	assert.Equal(t, Resolve(rec, 40), ResolveInverseAt(rec, 40, domain.OptionalFloat{}))
}

func TestResolver_ApplyInverseAcrossBandEdge(t *testing.T) {
	d := domain.Dataset{ID: "moon-lro", Body: domain.BodyMoon}
	r := NewResolver(NewTable(map[string]domain.AlignmentCorrection{
		"body:moon": {Dynamic: &domain.DynamicCorrection{
			Bands: []domain.LatitudeBand{{MinLat: f(0), MaxLat: f(10), LatOffset: f(5), LonOffset: f(1)}},
		}},
	}))

	lat, lon, _, src := r.ApplyForward(d, 8, 20, domain.OptionalFloat{})
	require.Equal(t, SourceBody, src)
	lat, lon, _ = r.ApplyInverse(d, lat, lon, domain.OptionalFloat{})
	assert.InDelta(t, 8, lat, 1e-12)
	assert.InDelta(t, 20, lon, 1e-12)

	res, src := r.ResolveInverse(domain.Dataset{ID: "x", Body: domain.BodyCeres}, 13, domain.OptionalFloat{})
	assert.Equal(t, SourceNone, src)
	assert.True(t, res.IsIdentity())
}
