package domain

// GazetteerFeature is a named surface feature. Lat/Lon are canonical
// (east-positive, [-180,180)) degrees regardless of the source convention.
type GazetteerFeature struct {
	Name       string   `json:"name"`
	Body       Body     `json:"body"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	DiameterKm *float64 `json:"diameter_km,omitempty"`
	Category   string   `json:"category"`
	Origin     string   `json:"origin,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

// Position returns the canonical latitude and longitude.
func (f GazetteerFeature) Position() (lat, lon float64) { return f.Lat, f.Lon }

// FeatureMatch is a gazetteer feature paired with its distance from a query point.
type FeatureMatch struct {
	Feature    GazetteerFeature `json:"feature"`
	DistanceKm float64          `json:"distance_km"`
}

// ScoredFeature is a keyword search hit.
type ScoredFeature struct {
	GazetteerFeature
	Score int `json:"match_score"`
}
