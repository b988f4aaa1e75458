package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/stellarcanvas/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// legacyRoutes are paths kept for older viewer builds.
var legacyRoutes = []DeprecatedRoute{
	{Path: "/v1/viewer/layers", SunsetDate: time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC), Alternative: "/v1/datasets"},
	{Path: "/v1/viewer/layers/:id", SunsetDate: time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC), Alternative: "/v1/datasets/:id"},
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Projection calls are cheap; the limit guards the gazetteer and the stores.
	app.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(legacyRoutes))

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	with := func(h fiber.Handler) fiber.Handler { return timeout.NewWithContext(h, requestTimeout) }

	v1.Get("/bodies", with(ListBodiesHandler(deps)))
	v1.Get("/bodies/:body", with(GetBodyHandler(deps)))
	v1.Get("/bodies/:body/nearest", with(NearestFeatureHandler(deps)))
	v1.Get("/bodies/:body/features", with(FeaturesInBoundsHandler(deps)))
	v1.Get("/bodies/:body/features/search", with(SearchFeaturesHandler(deps)))

	v1.Get("/convert", with(ConvertHandler(deps)))

	v1.Get("/datasets", with(ListDatasetsHandler(deps)))
	v1.Get("/datasets/:id", with(GetDatasetHandler(deps)))
	v1.Get("/datasets/:id/project", with(ProjectHandler(deps)))
	v1.Get("/datasets/:id/unproject", with(UnprojectHandler(deps)))
	v1.Get("/datasets/:id/tiles/:level/:x/:y", with(TileHandler(deps)))
	v1.Get("/datasets/:id/tile-at", with(TileAtHandler(deps)))
	v1.Get("/datasets/:id/compatible/:other", with(CompatibleHandler(deps)))
	v1.Get("/datasets/:id/correction", with(DatasetCorrectionHandler(deps)))

	v1.Get("/corrections", with(ListCorrectionsHandler(deps)))
	v1.Get("/corrections/:key", with(GetCorrectionHandler(deps)))
	v1.Put("/corrections/:key", with(PutCorrectionHandler(deps)))
	v1.Delete("/corrections/:key", with(DeleteCorrectionHandler(deps)))

	v1.Get("/viewer/layers", with(ListDatasetsHandler(deps)))
	v1.Get("/viewer/layers/:id", with(GetDatasetHandler(deps)))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
