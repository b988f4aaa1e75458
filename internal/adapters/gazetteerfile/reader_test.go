package gazetteerfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
)

const featureList = `[
  {"name": "Tycho", "body": "moon", "lat": -43.31, "lon": 348.78, "diameter_km": 85.29, "category": "Crater", "keywords": ["tycho", "ray"]},
  {"name": "Copernicus", "body": "moon", "lat": 9.62, "lon": 339.92, "category": "Crater"},
  {"name": "Olympus Mons", "body": "mars", "lat": 18.65, "lon": 226.2},
  {"name": "", "body": "moon", "lat": 0, "lon": 0},
  {"name": "Bad Lat", "body": "moon", "lat": 95, "lon": 0},
  {"name": "Mare Tranquillitatis", "lat": 8.35, "lon": 30.83, "category": "Mare"}
]`

func TestReadJSON_ConvertsAndFilters(t *testing.T) {
	east360 := angle.Convention{Direction: angle.East, Domain: angle.Domain360}
	res, err := ReadJSON(strings.NewReader(featureList), Options{
		Body: domain.BodyMoon, Convention: east360, Origin: "IAU",
	})
	require.NoError(t, err)

	require.Len(t, res.Features, 3)
	assert.Equal(t, 3, res.Skipped)

	tycho := res.Features[0]
	assert.Equal(t, "Tycho", tycho.Name)
	assert.Equal(t, domain.BodyMoon, tycho.Body)
	assert.InDelta(t, -11.22, tycho.Lon, 1e-9)
	require.NotNil(t, tycho.DiameterKm)
	assert.InDelta(t, 85.29, *tycho.DiameterKm, 1e-9)
	assert.Equal(t, "IAU", tycho.Origin)

	mare := res.Features[2]
	assert.Equal(t, domain.BodyMoon, mare.Body)
	assert.InDelta(t, 30.83, mare.Lon, 1e-9)
}

func TestReadJSON_WestPositiveSource(t *testing.T) {
	west := angle.Convention{Direction: angle.West, Domain: angle.Domain360}
	res, err := ReadJSON(strings.NewReader(`[{"name":"Olympus Mons","body":"mars","lat":18.65,"lon":133.8}]`),
		Options{Body: domain.BodyMars, Convention: west})
	require.NoError(t, err)
	require.Len(t, res.Features, 1)
	assert.InDelta(t, -133.8, res.Features[0].Lon, 1e-9)
	assert.Equal(t, "Feature", res.Features[0].Category)
}

func TestReadJSON_Malformed(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"name":`), Options{Body: domain.BodyMoon, Convention: angle.Canonical})
	assert.Error(t, err)
}

func TestReadShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "craters.shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("NAME", 40),
		shp.FloatField("DIAMETER", 12, 3),
		shp.StringField("TYPE", 20),
	}))
	rows := []struct {
		name string
		x, y float64
		diam float64
	}{
		{"Gale", 137.4, -5.4, 154},
		{"Jezero", 77.58, 18.38, 49},
		{"", 10, 10, 1},
	}
	for i, r := range rows {
		w.Write(&shp.Point{X: r.x, Y: r.y})
		require.NoError(t, w.WriteAttribute(i, 0, r.name))
		require.NoError(t, w.WriteAttribute(i, 1, r.diam))
		require.NoError(t, w.WriteAttribute(i, 2, "Crater"))
	}
	w.Close()

	res, err := NewReader().ReadFile(context.Background(), path, Options{
		Body: domain.BodyMars, Convention: angle.Convention{Direction: angle.East, Domain: angle.Domain360},
	})
	require.NoError(t, err)
	require.Len(t, res.Features, 2)
	assert.Equal(t, 1, res.Skipped)

	gale := res.Features[0]
	assert.Equal(t, "Gale", gale.Name)
	assert.InDelta(t, -5.4, gale.Lat, 1e-9)
	assert.InDelta(t, 137.4, gale.Lon, 1e-9)
	assert.Equal(t, "Crater", gale.Category)
	require.NotNil(t, gale.DiameterKm)
	assert.InDelta(t, 154, *gale.DiameterKm, 1e-6)
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	_, err := NewReader().ReadFile(context.Background(), "features.kmz", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFileSource_FiltersBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_features.json")
	require.NoError(t, os.WriteFile(path, []byte(featureList), 0o600))

	src := NewFileSource(path, angle.Convention{Direction: angle.East, Domain: angle.Domain360})
	mars, err := src.LoadFeatures(context.Background(), domain.BodyMars)
	require.NoError(t, err)
	require.Len(t, mars, 1)
	assert.Equal(t, "Olympus Mons", mars[0].Name)
	assert.InDelta(t, -133.8, mars[0].Lon, 1e-9)
}
