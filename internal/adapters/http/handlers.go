package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/usecases"
)

// BodyDetail is a body with its datasets and loaded gazetteer size.
type BodyDetail struct {
	domain.BodyProjection
	Datasets []domain.Dataset `json:"datasets"`
	Features int              `json:"features_loaded"`
}

// ListBodiesHandler returns every supported body.
func ListBodiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Catalog.Bodies())
	}
}

// GetBodyHandler returns a single body with its datasets.
func GetBodyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("body")
		body, err := deps.Catalog.Body(key)
		if err != nil {
			return errFromDomain(c, err)
		}
		datasets, err := deps.Catalog.Datasets(key)
		if err != nil {
			return errFromDomain(c, err)
		}
		detail := BodyDetail{BodyProjection: body, Datasets: datasets}
		if deps.Gazetteer != nil {
			detail.Features = deps.Gazetteer.Loaded()[body.Key]
		}
		return c.JSON(detail)
	}
}

// ListDatasetsHandler lists datasets, optionally filtered by ?body=.
func ListDatasetsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		datasets, err := deps.Catalog.Datasets(c.Query("body"))
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(paginate(c, datasets, 100, 500))
	}
}

// GetDatasetHandler returns one dataset.
func GetDatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := deps.Catalog.Dataset(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(d)
	}
}

// ConvertHandler re-expresses a longitude in another convention.
// GET /v1/convert?lat=10&lon=270&from=east-360&to=west-180
func ConvertHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lon, err := requiredFloat(c, "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lat := optionalFloat(c, "lat").Or(0)
		from, err := convention(c, "from")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		to, err := convention(c, "to")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		out := deps.Coordinates.Convert(c.UserContext(), domain.Coordinate{Lat: lat, Lon: lon, Convention: from}, to)
		return c.JSON(out)
	}
}

// ProjectHandler maps a coordinate to a dataset pixel.
// GET /v1/datasets/:id/project?lat=&lon=&convention=&zoom=
func ProjectHandler(deps *Dependencies) fiber.Handler {
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

		res, err := deps.Coordinates.Project(c.UserContext(), usecases.ProjectRequest{
			DatasetID:  c.Params("id"),
			Lat:        lat,
			Lon:        lon,
			Convention: conv,
			Zoom:       optionalFloat(c, "zoom"),
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// UnprojectHandler maps a dataset pixel back to a coordinate.
// GET /v1/datasets/:id/unproject?x=&y=&convention=&zoom=
func UnprojectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		x, err := requiredFloat(c, "x")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		y, err := requiredFloat(c, "y")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		conv, err := convention(c, "convention")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		res, err := deps.Coordinates.Unproject(c.UserContext(), usecases.UnprojectRequest{
			DatasetID:  c.Params("id"),
			X:          x,
			Y:          y,
			Convention: conv,
			Zoom:       optionalFloat(c, "zoom"),
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// TileHandler resolves a virtual tile to the provider address. With
// ?redirect=true it answers 302 to the provider URL instead.
func TileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		level, errL := strconv.Atoi(c.Params("level"))
		x, errX := strconv.Atoi(c.Params("x"))
		y, errY := strconv.Atoi(c.Params("y"))
		if errL != nil || errX != nil || errY != nil {
			return errBadRequest(c, "level, x and y must be integers")
		}

		ref, err := deps.Tiles.Tile(c.Params("id"), level, x, y)
		if err != nil {
			return errFromDomain(c, err)
		}
		if c.QueryBool("redirect") {
			return c.Redirect(ref.URL, fiber.StatusFound)
		}
		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(ref)
	}
}

// TileAtHandler returns the tile holding a coordinate at a level.
// GET /v1/datasets/:id/tile-at?lat=&lon=&level=&convention=
func TileAtHandler(deps *Dependencies) fiber.Handler {
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

		pt, err := deps.Tiles.TileForPoint(c.UserContext(), c.Params("id"), lat, lon, conv, c.QueryInt("level", 0))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(pt)
	}
}

// CompatibleHandler reports whether two datasets share a pixel grid.
func CompatibleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, b := c.Params("id"), c.Params("other")
		ok, err := deps.Coordinates.Compatible(a, b)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"dataset_id": a, "other": b, "compatible": ok})
	}
}
