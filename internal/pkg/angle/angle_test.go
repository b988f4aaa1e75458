package angle

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allConventions = []Convention{
	{East, Domain180},
	{East, Domain360},
	{West, Domain180},
	{West, Domain360},
}

func TestWrap180_Boundaries(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-180, -180},
		{180, -180},
		{0, 0},
		{360, 0},
		{-360, 0},
		{540, -180},
		{179.999, 179.999},
		{190, -170},
		{-190, 170},
		{720.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			assert.InDelta(t, tt.want, Wrap180(tt.in), 1e-12)
		})
	}
}

func TestWrap180_TinyNegativeStaysHalfOpen(t *testing.T) {
	got := Wrap180(-180 - 1e-15)
	assert.GreaterOrEqual(t, got, -180.0)
	assert.Less(t, got, 180.0)
}

func TestWrap360_Boundaries(t *testing.T) {
	assert.Equal(t, 0.0, Wrap360(360))
	assert.Equal(t, 0.0, Wrap360(0))
	assert.Equal(t, 180.0, Wrap360(-180))
	assert.Equal(t, 180.0, Wrap360(180))
	assert.InDelta(t, 359.5, Wrap360(-0.5), 1e-12)
	got := Wrap360(-1e-15)
	assert.Less(t, got, 360.0)
}

func TestCanonicalize_AntimeridianRepresentative(t *testing.T) {
	for _, c := range allConventions {
		for _, v := range []float64{-180, 180} {
			got := Canonicalize(Angle{Value: v, Convention: c})
			assert.Equal(t, -180.0, got.Value, "convention %s value %v", c, v)
			assert.Equal(t, Canonical, got.Convention)
		}
	}
}

func TestToDomain360(t *testing.T) {
	assert.Equal(t, 270.0, ToDomain360(Angle{Value: -90, Convention: Canonical}))
	assert.Equal(t, 90.0, ToDomain360(Angle{Value: -90, Convention: Convention{West, Domain180}}))
	assert.Equal(t, 0.0, ToDomain360(Angle{Value: 360, Convention: Convention{East, Domain360}}))
	assert.Equal(t, 180.0, ToDomain360(Angle{Value: 180, Convention: Canonical}))
}

func TestConvert_KnownValues(t *testing.T) {
	e180 := Convention{East, Domain180}
	e360 := Convention{East, Domain360}
	w180 := Convention{West, Domain180}
	w360 := Convention{West, Domain360}

	tests := []struct {
		name     string
		value    float64
		from, to Convention
		want     float64
	}{
		{"east180 to east360 negative", -90, e180, e360, 270},
		{"east360 to east180 upper half", 270, e360, e180, -90},
		{"east to west same domain", 45, e180, w180, -45},
		{"east to west 360", 45, e180, w360, 315},
		{"west360 to east180", 315, w360, e180, 45},
		{"date line east to west360", -180, e180, w360, 180},
		{"zero stays zero", 0, w360, e180, 0},
		{"360 collapses to zero", 360, e360, e180, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Convert(tt.value, tt.from, tt.to), 1e-12)
		})
	}
}

// representable returns sample values valid in convention c, including its boundaries.
func representable(c Convention) []float64 {
	if c.Domain == Domain360 {
		return []float64{0, 0.25, 45, 90, 179.999999, 180, 180.000001, 270, 359.75, 359.999999}
	}
	return []float64{-180, -179.999999, -90, -0.5, 0, 0.5, 90, 179.75, 179.999999}
}

func TestConvert_RoundTrip(t *testing.T) {
	for _, c1 := range allConventions {
		for _, c2 := range allConventions {
			for _, x := range representable(c1) {
				back := Convert(Convert(x, c1, c2), c2, c1)
				require.InDelta(t, x, back, 1e-9, "%s -> %s -> %s for %v", c1, c2, c1, x)
			}
		}
	}
}

func TestConvert_BoundaryInputsFixRepresentative(t *testing.T) {
	e180 := Convention{East, Domain180}
	e360 := Convention{East, Domain360}

	// 180 is not representable in the half-open 180 domain; it lands on -180.
	assert.Equal(t, -180.0, Convert(180, e180, e180))
	// 360 is not representable in [0,360); it lands on 0.
	assert.Equal(t, 0.0, Convert(360, e360, e360))
	assert.Equal(t, -180.0, Convert(180, e360, e180))
	assert.Equal(t, 180.0, Convert(-180, e180, e360))
}

func TestAngle_In(t *testing.T) {
	a := Angle{Value: 200, Convention: Convention{East, Domain360}}
	got := a.In(Canonical)
	assert.InDelta(t, -160, got.Value, 1e-12)
	assert.Equal(t, Canonical, got.Convention)
}

func TestInferConvention(t *testing.T) {
	assert.Equal(t, Domain360, InferConvention(200).Domain)
	assert.Equal(t, Domain360, InferConvention(-181).Domain)
	assert.Equal(t, Domain180, InferConvention(180).Domain)
	// Ambiguous: a 360-domain 90 reads as 180-domain.
	assert.Equal(t, Canonical, InferConvention(90))
}

func TestParseConvention(t *testing.T) {
	for _, c := range allConventions {
		got, err := ParseConvention(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := ParseConvention(" West-360 ")
	require.NoError(t, err)
	assert.Equal(t, Convention{West, Domain360}, got)

	for _, bad := range []string{"", "east", "north-180", "east-90"} {
		_, err := ParseConvention(bad)
		assert.Error(t, err, bad)
	}
}

func TestConvention_TextRoundTrip(t *testing.T) {
	var c Convention
	require.NoError(t, c.UnmarshalText([]byte("west-180")))
	b, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "west-180", string(b))
}

func TestSanitizeLat(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
		warn Warning
	}{
		{45, 45, 0},
		{90, 90, 0},
		{91, 90, WarnLatClamped},
		{-100, -90, WarnLatClamped},
		{math.NaN(), 0, WarnLatNonFinite},
		{math.Inf(1), 90, WarnLatNonFinite},
		{math.Inf(-1), -90, WarnLatNonFinite},
	}
	for _, tt := range tests {
		got, w := SanitizeLat(tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.warn, w)
	}
}

func TestSanitizeLon(t *testing.T) {
	got, w := SanitizeLon(math.NaN())
	assert.Equal(t, 0.0, got)
	assert.True(t, w.Has(WarnLonNonFinite))

	got, w = SanitizeLon(725)
	assert.Equal(t, 725.0, got)
	assert.Equal(t, Warning(0), w)
}

func TestWarning_String(t *testing.T) {
	assert.Equal(t, "none", Warning(0).String())
	w := WarnLatClamped | WarnLonNonFinite
	assert.Equal(t, "lat_clamped,lon_non_finite", w.String())
	assert.Len(t, w.Kinds(), 2)
}

func TestDiff(t *testing.T) {
	assert.InDelta(t, 2, Diff(-179, 179), 1e-12)
	assert.InDelta(t, -2, Diff(179, -179), 1e-12)
}
