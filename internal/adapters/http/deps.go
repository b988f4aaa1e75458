package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stellarcanvas/internal/core/usecases"
)

// Pinger is a backing service the readiness check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Catalog     *usecases.CatalogService
	Coordinates *usecases.CoordinateService
	Corrections *usecases.CorrectionService
	Tiles       *usecases.TileService
	Gazetteer   *usecases.GazetteerService
	NATS        *nats.Conn
	DB          Pinger
	Cache       Pinger
	// CorrectionBackend names the configured correction store, for /v1/ready.
	CorrectionBackend string
}
