package projection_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
	"github.com/samirrijal/stellarcanvas/internal/pkg/projection"
)

var (
	east180 = angle.Canonical
	east360 = angle.Convention{Direction: angle.East, Domain: angle.Domain360}
	west180 = angle.Convention{Direction: angle.West, Domain: angle.Domain180}
	west360 = angle.Convention{Direction: angle.West, Domain: angle.Domain360}
)

var samplePoints = []struct {
	name     string
	lat, lon float64
}{
	{"north pole", 90, 0},
	{"south pole", -90, 45},
	{"equator prime meridian", 0, 0},
	{"equator date line west", 0, -180},
	{"equator date line east", 0, 180},
	{"mid latitude east", 35.5, 120.25},
	{"mid latitude west", -42.75, -77.125},
	{"near date line", 12, 179.9999},
}

func TestRoundTrip_EveryBody(t *testing.T) {
	dims := projection.Dims{Width: 256 * 1 << 10, Height: 256 * 1 << 10}
	for _, b := range append([]domain.Body{domain.BodyUnknown}, domain.KnownBodies...) {
		ctx := projection.NewContext(domain.DefaultProjection(b).Params())
		for _, conv := range []angle.Convention{east180, east360, west180, west360} {
			for _, p := range samplePoints {
				t.Run(fmt.Sprintf("%s/%s/%s", b, conv, p.name), func(t *testing.T) {
					lon := angle.Convert(p.lon, angle.Canonical, conv)
					px, w := ctx.LatLonToPixel(p.lat, lon, conv, dims)
					require.Zero(t, w)

					lat, gotLon := ctx.PixelToLatLon(px, dims, conv)
					assert.InDelta(t, p.lat, lat, 180/dims.Height)
					// Compare angularly; the date line has one representative.
					dLon := angle.Diff(gotLon, lon)
					assert.InDelta(t, 0, dLon, 360/dims.Width)
				})
			}
		}
	}
}

func TestRoundTrip_WithOffsetsAndWestNative(t *testing.T) {
	ctxs := []projection.Params{
		{RadiusKm: 100, Native: east360, CentralMeridian: 0, PrimeMeridianOffset: 150},
		{RadiusKm: 100, Native: west360, CentralMeridian: -180, PrimeMeridianOffset: -20},
		{RadiusKm: 100, Native: west180, CentralMeridian: 90, PrimeMeridianOffset: 180},
	}
	dims := projection.Dims{Width: 8192, Height: 4096}
	for i, params := range ctxs {
		ctx := projection.NewContext(params)
		for _, p := range samplePoints {
			t.Run(fmt.Sprintf("%d/%s", i, p.name), func(t *testing.T) {
				px, _ := ctx.LatLonToPixel(p.lat, p.lon, east180, dims)
				lat, lon := ctx.PixelToLatLon(px, dims, east180)
				assert.InDelta(t, p.lat, lat, 1e-9)
				assert.InDelta(t, 0, angle.Diff(lon, p.lon), 1e-9)
			})
		}
	}
}

func TestToNormalized_KnownValues(t *testing.T) {
	// Origin column at -180: longitude 0 lands in the middle.
	moon := projection.NewContext(domain.DefaultProjection(domain.BodyMoon).Params())
	n, w := moon.ToNormalized(0, 0, east180)
	assert.Zero(t, w)
	assert.InDelta(t, 0.5, n.U, 1e-12)
	assert.InDelta(t, 0.5, n.V, 1e-12)

	n, _ = moon.ToNormalized(90, -180, east180)
	assert.InDelta(t, 0, n.U, 1e-12)
	assert.InDelta(t, 0, n.V, 1e-12)

	// East increases u.
	n, _ = moon.ToNormalized(-90, 90, east180)
	assert.InDelta(t, 0.75, n.U, 1e-12)
	assert.InDelta(t, 1, n.V, 1e-12)

	// A 360-domain body with origin at 0: input 270 east and -90 east agree.
	ceres := projection.NewContext(domain.DefaultProjection(domain.BodyCeres).Params())
	a, _ := ceres.ToNormalized(10, 270, east360)
	b, _ := ceres.ToNormalized(10, -90, east180)
	assert.InDelta(t, 0.75, a.U, 1e-12)
	assert.InDelta(t, a.U, b.U, 1e-12)
}

func TestToNormalized_OffsetsSubtractedBeforeDomainConversion(t *testing.T) {
	ctx := projection.NewContext(projection.Params{
		RadiusKm: 1, Native: east360, CentralMeridian: 0, PrimeMeridianOffset: 10,
	})
	// 5 - 10 = -5 canonical, which is 355 in the native 360 domain.
	n, _ := ctx.ToNormalized(0, 5, east180)
	assert.InDelta(t, 355.0/360, n.U, 1e-12)

	// West-positive input of 5 is canonical -5; minus 10 is -15 => 345.
	n, _ = ctx.ToNormalized(0, 5, west180)
	assert.InDelta(t, 345.0/360, n.U, 1e-12)
}

func TestToNormalized_DegradesNonFinite(t *testing.T) {
	ctx := projection.NewContext(domain.DefaultProjection(domain.BodyMars).Params())

	n, w := ctx.ToNormalized(math.NaN(), math.Inf(1), east180)
	assert.True(t, w.Has(angle.WarnLatNonFinite))
	assert.True(t, w.Has(angle.WarnLonNonFinite))
	assert.InDelta(t, 0.5, n.U, 1e-12)
	assert.InDelta(t, 0.5, n.V, 1e-12)

	n, w = ctx.ToNormalized(123, 0, east180)
	assert.True(t, w.Has(angle.WarnLatClamped))
	assert.Equal(t, 0.0, n.V)
}

func TestFromPixel_WrapsHorizontallyClampsVertically(t *testing.T) {
	d := projection.Dims{Width: 1000, Height: 500}

	n := projection.FromPixel(projection.Pixel{X: 1250, Y: 600}, d)
	assert.InDelta(t, 0.25, n.U, 1e-12)
	assert.Equal(t, 1.0, n.V)

	n = projection.FromPixel(projection.Pixel{X: -250, Y: -10}, d)
	assert.InDelta(t, 0.75, n.U, 1e-12)
	assert.Equal(t, 0.0, n.V)

	assert.Equal(t, projection.Normalized{}, projection.FromPixel(projection.Pixel{X: 1, Y: 1}, projection.Dims{}))
}

func TestNewContext_CanonicalizesOffsets(t *testing.T) {
	ctx := projection.NewContext(projection.Params{CentralMeridian: 180, PrimeMeridianOffset: 370})
	assert.Equal(t, -180.0, ctx.Params().CentralMeridian)
	assert.InDelta(t, 10, ctx.Params().PrimeMeridianOffset, 1e-12)
}

func BenchmarkLatLonToPixel(b *testing.B) {
	ctx := projection.NewContext(domain.DefaultProjection(domain.BodyMars).Params())
	d := projection.Dims{Width: 65536, Height: 65536}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx.LatLonToPixel(45.12345, -122.6789, east180, d)
	}
}
