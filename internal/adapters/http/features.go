package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/usecases"
)

// NearestFeatureHandler returns the gazetteer feature closest to a point.
// GET /v1/bodies/:body/nearest?lat=&lon=&convention=&max_km=
func NearestFeatureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err := requiredFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lon, err := requiredFloat(c, "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		conv, err := convention(c, "convention")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		m, err := deps.Gazetteer.Nearest(c.UserContext(), usecases.NearestRequest{
			Body:          c.Params("body"),
			Lat:           lat,
			Lon:           lon,
			Convention:    conv,
			MaxDistanceKm: optionalFloat(c, "max_km"),
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(m)
	}
}

// FeaturesInBoundsHandler returns the features inside a viewport as a
// GeoJSON FeatureCollection. min_lon > max_lon selects a box across the
// antimeridian.
func FeaturesInBoundsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var b domain.Bounds
		for _, p := range []struct {
			name string
			dst  *float64
		}{
			{"min_lat", &b.MinLat}, {"min_lon", &b.MinLon},
			{"max_lat", &b.MaxLat}, {"max_lon", &b.MaxLon},
		} {
			v, err := requiredFloat(c, p.name)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			*p.dst = v
		}

		features, err := deps.Gazetteer.InBounds(c.UserContext(), c.Params("body"), b, clampLimit(c, 500, 5000))
		if err != nil {
			return errFromDomain(c, err)
		}

		data, err := json.Marshal(featureCollection(features))
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Content-Type", "application/geo+json")
		return c.Send(data)
	}
}

// SearchFeaturesHandler ranks features by keyword.
// GET /v1/bodies/:body/features/search?q=tycho&limit=10
func SearchFeaturesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if q == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(q) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		hits, err := deps.Gazetteer.Search(c.UserContext(), c.Params("body"), q, clampLimit(c, 10, 100))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(hits)
	}
}

func featureCollection(features []domain.GazetteerFeature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(orb.Point{f.Lon, f.Lat})
		gf.Properties["name"] = f.Name
		gf.Properties["body"] = f.Body.String()
		gf.Properties["category"] = f.Category
		if f.DiameterKm != nil {
			gf.Properties["diameter_km"] = *f.DiameterKm
		}
		if f.Origin != "" {
			gf.Properties["origin"] = f.Origin
		}
		fc.Append(gf)
	}
	return fc
}
