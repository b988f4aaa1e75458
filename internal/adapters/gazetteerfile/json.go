package gazetteerfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

// jsonFeature is one entry of a feature list such as all_features.json.
type jsonFeature struct {
	Name       string   `json:"name"`
	Body       string   `json:"body"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	DiameterKm *float64 `json:"diameter_km"`
	Category   string   `json:"category"`
	Origin     string   `json:"origin"`
	Keywords   []string `json:"keywords"`
}

// ReadJSONFile opens path and decodes it with ReadJSON.
func ReadJSONFile(path string, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()
	return ReadJSON(f, opts)
}

// ReadJSON decodes a JSON array of features.
func ReadJSON(r io.Reader, opts Options) (Result, error) {
	var raw []jsonFeature
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Result{}, fmt.Errorf("decode feature list: %w", err)
	}

	var res Result
	for _, jf := range raw {
		body := opts.Body
		if jf.Body == "" && opts.RequireBody {
			res.Skipped++
			continue
		}
		if jf.Body != "" {
			b, err := domain.ParseBody(jf.Body)
			if err != nil || b != opts.Body {
				res.Skipped++
				continue
			}
			body = b
		}
		f, ok := normalize(domain.GazetteerFeature{
			Name:       jf.Name,
			Body:       body,
			Lat:        jf.Lat,
			Lon:        jf.Lon,
			DiameterKm: jf.DiameterKm,
			Category:   jf.Category,
			Origin:     jf.Origin,
			Keywords:   jf.Keywords,
		}, opts)
		if !ok {
			res.Skipped++
			continue
		}
		res.Features = append(res.Features, f)
	}
	return res, nil
}
