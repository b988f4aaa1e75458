package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/usecases"
)

// ListCorrectionsHandler returns every stored correction ordered by key.
func ListCorrectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resp := paginate(c, deps.Corrections.List(), 100, 500)
		c.Set("Cache-Control", "no-cache")
		return c.JSON(resp)
	}
}

// GetCorrectionHandler returns the record under :key (dataset id,
// compat:<key> or body:<name>).
func GetCorrectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := pathParam(c, "key")
		rec, err := deps.Corrections.Get(key)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(usecases.KeyedCorrection{Key: key, Record: rec})
	}
}

// PutCorrectionHandler replaces the record under :key.
func PutCorrectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := pathParam(c, "key")
		rec, err := domain.DecodeCorrection(c.Body())
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		stored, err := deps.Corrections.Set(c.UserContext(), key, rec)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(usecases.KeyedCorrection{Key: key, Record: stored})
	}
}

// DeleteCorrectionHandler removes the record under :key.
func DeleteCorrectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Corrections.Delete(c.UserContext(), pathParam(c, "key")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DatasetCorrectionHandler reports the record in effect for a dataset.
// With lat and lon it also runs the lat/lon stage: forward by default,
// inverse with ?inverse=true.
func DatasetCorrectionHandler(deps *Dependencies) fiber.Handler {
	type response struct {
		usecases.DatasetCorrection
		Applied *usecases.ApplyResult `json:"applied,omitempty"`
	}
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		dc, err := deps.Corrections.ForDataset(id)
		if err != nil {
			return errFromDomain(c, err)
		}
		out := response{DatasetCorrection: dc}

		if c.Query("lat") != "" || c.Query("lon") != "" {
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
			res, err := deps.Corrections.Apply(c.UserContext(), usecases.ApplyRequest{
				DatasetID:  id,
				Lat:        lat,
				Lon:        lon,
				Convention: conv,
				Zoom:       optionalFloat(c, "zoom"),
				Inverse:    c.QueryBool("inverse"),
			})
			if err != nil {
				return errFromDomain(c, err)
			}
			out.Applied = &res
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(out)
	}
}
