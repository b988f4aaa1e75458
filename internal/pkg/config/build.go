package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
	"github.com/samirrijal/stellarcanvas/internal/pkg/tiling"
)

// Catalog builds the immutable body and dataset catalog.
func (c *Config) Catalog() (*domain.Catalog, error) {
	overrides := make([]domain.BodyProjection, 0, len(c.Bodies))
	for _, b := range c.Bodies {
		body, err := domain.ParseBody(b.Key)
		if err != nil {
			return nil, err
		}
		p := domain.DefaultProjection(body)
		if b.Name != "" {
			p.Name = b.Name
		}
		p.RadiusKm = b.RadiusKm
		if b.NativeConvention != "" {
			if p.Native, err = angle.ParseConvention(b.NativeConvention); err != nil {
				return nil, err
			}
		}
		p.CentralMeridian = b.CentralMeridian
		p.PrimeMeridianOffset = b.PrimeMeridianOffset
		overrides = append(overrides, p)
	}

	datasets := make([]domain.Dataset, 0, len(c.Datasets))
	for _, d := range c.Datasets {
		ds, err := d.dataset()
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return domain.NewCatalog(overrides, datasets)
}

func (d DatasetConfig) dataset() (domain.Dataset, error) {
	// Unknown bodies are reported by the catalog with the dataset id.
	body, _ := domain.ParseBody(d.Body)

	scheme := tiling.SchemeWMTS
	if d.Tiling != "" {
		s, err := tiling.ParseScheme(d.Tiling)
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("dataset %s: %w", d.ID, err)
		}
		scheme = s
	}
	yAxis, err := tiling.ParseYAxis(d.YAxis)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("dataset %s: %w", d.ID, err)
	}
	proj := d.Projection
	if proj == "" {
		proj = "simple-cylindrical"
	}
	return domain.Dataset{
		ID:               d.ID,
		Title:            d.Title,
		Body:             body,
		URLTemplate:      d.URLTemplate,
		Scheme:           scheme,
		YAxis:            yAxis,
		TileSize:         d.TileSize,
		MinZoom:          d.MinZoom,
		MaxZoom:          d.MaxZoom,
		Projection:       proj,
		CompatibilityKey: d.CompatibilityKey,
		Attribution:      d.Attribution,
		Width:            d.Width,
		Height:           d.Height,
	}, nil
}

// CorrectionDefaults returns the configured default corrections. Entries
// from DefaultsFile replace inline entries with the same key.
func (c *Config) CorrectionDefaults() (map[string]domain.AlignmentCorrection, error) {
	out := make(map[string]domain.AlignmentCorrection, len(c.Corrections.Defaults))
	for key, raw := range c.Corrections.Defaults {
		data, err := json.Marshal(normalizeYAML(raw))
		if err != nil {
			return nil, fmt.Errorf("corrections.defaults.%s: %w", key, err)
		}
		rec, err := domain.DecodeCorrection(data)
		if err != nil {
			return nil, fmt.Errorf("corrections.defaults.%s: %w", key, err)
		}
		out[key] = rec
	}

	if c.Corrections.DefaultsFile != "" {
		data, err := os.ReadFile(c.Corrections.DefaultsFile)
		if err != nil {
			return nil, fmt.Errorf("corrections.defaults_file: %w", err)
		}
		var file map[string]json.RawMessage
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("corrections.defaults_file: %w", err)
		}
		for key, raw := range file {
			rec, err := domain.DecodeCorrection(raw)
			if err != nil {
				return nil, fmt.Errorf("corrections.defaults_file %s: %w", key, err)
			}
			out[key] = rec
		}
	}

	for key, rec := range out {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("correction default %s: %w", key, err)
		}
	}
	return out, nil
}

// GazetteerConvention is the longitude convention of gazetteer import files.
func (c *Config) GazetteerConvention() angle.Convention {
	conv, err := angle.ParseConvention(c.Gazetteer.FileConvention)
	if err != nil {
		return angle.Canonical
	}
	return conv
}

// normalizeYAML converts map[any]any nodes so encoding/json accepts them.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	}
	return v
}
