package domain

import (
	"fmt"
	"strings"

	"github.com/samirrijal/stellarcanvas/internal/pkg/projection"
)

// Params returns the projection parameters of the body.
func (p BodyProjection) Params() projection.Params {
	return projection.Params{
		RadiusKm:            p.RadiusKm,
		Native:              p.Native,
		CentralMeridian:     p.CentralMeridian,
		PrimeMeridianOffset: p.PrimeMeridianOffset,
	}
}

// Catalog is the immutable body and dataset metadata loaded at startup.
type Catalog struct {
	bodies   [numBodies]BodyProjection
	contexts [numBodies]*projection.Context
	datasets map[string]Dataset
	order    []string
}

// NewCatalog builds a catalog from the compiled-in body table, optional
// per-body overrides, and the configured datasets.
func NewCatalog(overrides []BodyProjection, datasets []Dataset) (*Catalog, error) {
	c := &Catalog{datasets: make(map[string]Dataset, len(datasets))}
	for b := BodyUnknown; b < numBodies; b++ {
		c.bodies[b] = DefaultProjection(b)
	}
	for _, o := range overrides {
		if !o.Body.Known() {
			return nil, fmt.Errorf("%w: override for %q", ErrUnknownBody, o.Key)
		}
		if o.RadiusKm <= 0 {
			return nil, fmt.Errorf("body %s: radius_km must be positive", o.Body)
		}
		o.Key = o.Body.String()
		if o.Name == "" {
			o.Name = c.bodies[o.Body].Name
		}
		c.bodies[o.Body] = o
	}
	for b := BodyUnknown; b < numBodies; b++ {
		c.contexts[b] = projection.NewContext(c.bodies[b].Params())
	}

	var errs []string
	for _, d := range datasets {
		switch {
		case d.ID == "":
			errs = append(errs, "dataset with empty id")
			continue
		case !d.Body.Known():
			errs = append(errs, fmt.Sprintf("dataset %s: unknown body", d.ID))
		case d.URLTemplate == "":
			errs = append(errs, fmt.Sprintf("dataset %s: tile url template is required", d.ID))
		case d.TileSize <= 0:
			errs = append(errs, fmt.Sprintf("dataset %s: tile_size must be positive", d.ID))
		case d.MinZoom < 0 || d.MaxZoom < d.MinZoom:
			errs = append(errs, fmt.Sprintf("dataset %s: invalid zoom range [%d,%d]", d.ID, d.MinZoom, d.MaxZoom))
		}
		if _, dup := c.datasets[d.ID]; dup {
			errs = append(errs, fmt.Sprintf("dataset %s: duplicate id", d.ID))
			continue
		}
		c.datasets[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	errs = append(errs, c.checkCompatibilityGroups()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// Body returns the metadata for b; unsupported values yield the unknown record.
func (c *Catalog) Body(b Body) BodyProjection {
	if b >= numBodies {
		b = BodyUnknown
	}
	return c.bodies[b]
}

// LookupBody resolves a key. Unknown keys return the generic unknown record
// and ErrUnknownBody.
func (c *Catalog) LookupBody(key string) (BodyProjection, error) {
	b, err := ParseBody(key)
	return c.bodies[b], err
}

// Bodies returns all supported bodies, excluding the unknown record.
func (c *Catalog) Bodies() []BodyProjection {
	out := make([]BodyProjection, 0, len(KnownBodies))
	for _, b := range KnownBodies {
		out = append(out, c.bodies[b])
	}
	return out
}

// Projection returns the shared projection context for b.
func (c *Catalog) Projection(b Body) *projection.Context {
	if b >= numBodies {
		b = BodyUnknown
	}
	return c.contexts[b]
}

// Dataset returns the dataset with the given id.
func (c *Catalog) Dataset(id string) (Dataset, error) {
	d, ok := c.datasets[id]
	if !ok {
		return Dataset{}, fmt.Errorf("%w: %q", ErrUnknownDataset, id)
	}
	return d, nil
}

// Datasets returns all datasets in configuration order.
func (c *Catalog) Datasets() []Dataset {
	out := make([]Dataset, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.datasets[id])
	}
	return out
}

// DatasetsForBody returns the datasets of body b in configuration order.
func (c *Catalog) DatasetsForBody(b Body) []Dataset {
	var out []Dataset
	for _, id := range c.order {
		if d := c.datasets[id]; d.Body == b {
			out = append(out, d)
		}
	}
	return out
}

// checkCompatibilityGroups reports datasets that share a compatibility key
// but not a pixel grid. Each is compared with the first dataset of its key.
func (c *Catalog) checkCompatibilityGroups() []string {
	var errs []string
	first := make(map[string]Dataset)
	for _, id := range c.order {
		d := c.datasets[id]
		if d.CompatibilityKey == "" {
			continue
		}
		ref, ok := first[d.CompatibilityKey]
		if !ok {
			first[d.CompatibilityKey] = d
			continue
		}
		switch {
		case d.Body != ref.Body:
			errs = append(errs, fmt.Sprintf("dataset %s: compatibility key %q spans bodies %s and %s", d.ID, d.CompatibilityKey, ref.Body, d.Body))
		case d.Projection != ref.Projection:
			errs = append(errs, fmt.Sprintf("dataset %s: compatibility key %q spans projections %q and %q", d.ID, d.CompatibilityKey, ref.Projection, d.Projection))
		case d.Dims() != ref.Dims():
			errs = append(errs, fmt.Sprintf("dataset %s: compatibility key %q spans grids %vx%v and %vx%v", d.ID, d.CompatibilityKey,
				ref.Dims().Width, ref.Dims().Height, d.Dims().Width, d.Dims().Height))
		}
	}
	return errs
}
