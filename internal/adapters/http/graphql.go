package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/usecases"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	bodyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Body",
		Fields: graphql.Fields{
			"id":                    &graphql.Field{Type: graphql.String},
			"name":                  &graphql.Field{Type: graphql.String},
			"radius_km":             &graphql.Field{Type: graphql.Float},
			"native_convention":     &graphql.Field{Type: graphql.String},
			"central_meridian":      &graphql.Field{Type: graphql.Float},
			"prime_meridian_offset": &graphql.Field{Type: graphql.Float},
		},
	})

	datasetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Dataset",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: graphql.String},
			"title":             &graphql.Field{Type: graphql.String},
			"body":              &graphql.Field{Type: graphql.String},
			"tile_url_template": &graphql.Field{Type: graphql.String},
			"tiling":            &graphql.Field{Type: graphql.String},
			"y_axis":            &graphql.Field{Type: graphql.String},
			"tile_size":         &graphql.Field{Type: graphql.Int},
			"min_zoom":          &graphql.Field{Type: graphql.Int},
			"max_zoom":          &graphql.Field{Type: graphql.Int},
			"projection":        &graphql.Field{Type: graphql.String},
			"compatibility_key": &graphql.Field{Type: graphql.String},
			"attribution":       &graphql.Field{Type: graphql.String},
		},
	})

	xyType := func(name, x, y string) *graphql.Object {
		return graphql.NewObject(graphql.ObjectConfig{
			Name: name,
			Fields: graphql.Fields{
				x: &graphql.Field{Type: graphql.Float},
				y: &graphql.Field{Type: graphql.Float},
			},
		})
	}
	pixelType := xyType("Pixel", "x", "y")
	normalizedType := xyType("Normalized", "u", "v")
	dimsType := xyType("Dims", "width", "height")

	correctionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ResolvedCorrection",
		Fields: graphql.Fields{
			"lat_offset": &graphql.Field{Type: graphql.Float},
			"lon_offset": &graphql.Field{Type: graphql.Float},
			"scale":      &graphql.Field{Type: graphql.Float},
			"pixel_x":    &graphql.Field{Type: graphql.Float},
			"pixel_y":    &graphql.Field{Type: graphql.Float},
		},
	})

	projectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Projection",
		Fields: graphql.Fields{
			"dataset_id":        &graphql.Field{Type: graphql.String},
			"pixel":             &graphql.Field{Type: pixelType},
			"normalized":        &graphql.Field{Type: normalizedType},
			"dims":              &graphql.Field{Type: dimsType},
			"correction":        &graphql.Field{Type: correctionType},
			"correction_source": &graphql.Field{Type: graphql.String},
			"warnings":          &graphql.Field{Type: graphql.String},
		},
	})

	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat":        &graphql.Field{Type: graphql.Float},
			"lon":        &graphql.Field{Type: graphql.Float},
			"convention": &graphql.Field{Type: graphql.String},
		},
	})

	featureType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Feature",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"body":        &graphql.Field{Type: graphql.String},
			"lat":         &graphql.Field{Type: graphql.Float},
			"lon":         &graphql.Field{Type: graphql.Float},
			"diameter_km": &graphql.Field{Type: graphql.Float},
			"category":    &graphql.Field{Type: graphql.String},
			"origin":      &graphql.Field{Type: graphql.String},
			"keywords":    &graphql.Field{Type: graphql.NewList(graphql.String)},
			"distance_km": &graphql.Field{Type: graphql.Float},
			"match_score": &graphql.Field{Type: graphql.Int},
		},
	})

	conventionArg := &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: angle.Canonical.String()}
	parseConv := func(p graphql.ResolveParams, name string) (angle.Convention, error) {
		s, _ := p.Args[name].(string)
		if s == "" {
			return angle.Canonical, nil
		}
		return angle.ParseConvention(s)
	}
	zoomArg := func(p graphql.ResolveParams) domain.OptionalFloat {
		if z, ok := p.Args["zoom"].(float64); ok {
			return domain.Float(z)
		}
		return domain.OptionalFloat{}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"bodies": &graphql.Field{
				Type:        graphql.NewList(bodyType),
				Description: "List supported planetary bodies",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Catalog.Bodies(), nil
				},
			},
			"datasets": &graphql.Field{
				Type:        graphql.NewList(datasetType),
				Description: "List imagery datasets, optionally for one body",
				Args: graphql.FieldConfigArgument{
					"body": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					body, _ := p.Args["body"].(string)
					return deps.Catalog.Datasets(body)
				},
			},
			"dataset": &graphql.Field{
				Type:        datasetType,
				Description: "Get a dataset by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Catalog.Dataset(p.Args["id"].(string))
				},
			},
			"convert": &graphql.Field{
				Type:        coordinateType,
				Description: "Re-express a coordinate in another longitude convention",
				Args: graphql.FieldConfigArgument{
					"lat":  &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"lon":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"from": conventionArg,
					"to":   conventionArg,
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from, err := parseConv(p, "from")
					if err != nil {
						return nil, err
					}
					to, err := parseConv(p, "to")
					if err != nil {
						return nil, err
					}
					in := domain.Coordinate{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64), Convention: from}
					return deps.Coordinates.Convert(p.Context, in, to), nil
				},
			},
			"project": &graphql.Field{
				Type:        projectionType,
				Description: "Pixel position of a coordinate in a dataset",
				Args: graphql.FieldConfigArgument{
					"dataset":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"convention": conventionArg,
					"zoom":       &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					conv, err := parseConv(p, "convention")
					if err != nil {
						return nil, err
					}
					return deps.Coordinates.Project(p.Context, usecases.ProjectRequest{
						DatasetID:  p.Args["dataset"].(string),
						Lat:        p.Args["lat"].(float64),
						Lon:        p.Args["lon"].(float64),
						Convention: conv,
						Zoom:       zoomArg(p),
					})
				},
			},
			"unproject": &graphql.Field{
				Type:        coordinateType,
				Description: "Coordinate under a dataset pixel",
				Args: graphql.FieldConfigArgument{
					"dataset":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"x":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"y":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"convention": conventionArg,
					"zoom":       &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					conv, err := parseConv(p, "convention")
					if err != nil {
						return nil, err
					}
					res, err := deps.Coordinates.Unproject(p.Context, usecases.UnprojectRequest{
						DatasetID:  p.Args["dataset"].(string),
						X:          p.Args["x"].(float64),
						Y:          p.Args["y"].(float64),
						Convention: conv,
						Zoom:       zoomArg(p),
					})
					if err != nil {
						return nil, err
					}
					return domain.Coordinate{Lat: res.Lat, Lon: res.Lon, Convention: res.Convention}, nil
				},
			},
			"nearestFeature": &graphql.Field{
				Type:        featureType,
				Description: "Gazetteer feature closest to a point",
				Args: graphql.FieldConfigArgument{
					"body":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"convention": conventionArg,
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					conv, err := parseConv(p, "convention")
					if err != nil {
						return nil, err
					}
					m, err := deps.Gazetteer.Nearest(p.Context, usecases.NearestRequest{
						Body:       p.Args["body"].(string),
						Lat:        p.Args["lat"].(float64),
						Lon:        p.Args["lon"].(float64),
						Convention: conv,
					})
					if err != nil {
						return nil, err
					}
					out := featureMap(m.Feature)
					out["distance_km"] = m.DistanceKm
					return out, nil
				},
			},
			"searchFeatures": &graphql.Field{
				Type:        graphql.NewList(featureType),
				Description: "Keyword search over a body's gazetteer",
				Args: graphql.FieldConfigArgument{
					"body":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					hits, err := deps.Gazetteer.Search(p.Context, p.Args["body"].(string), p.Args["query"].(string), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(hits))
					for _, h := range hits {
						m := featureMap(h.GazetteerFeature)
						m["match_score"] = h.Score
						result = append(result, m)
					}
					return result, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func featureMap(f domain.GazetteerFeature) map[string]interface{} {
	m := map[string]interface{}{
		"name":     f.Name,
		"body":     f.Body.String(),
		"lat":      f.Lat,
		"lon":      f.Lon,
		"category": f.Category,
		"origin":   f.Origin,
		"keywords": f.Keywords,
	}
	if f.DiameterKm != nil {
		m["diameter_km"] = *f.DiameterKm
	}
	return m
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
