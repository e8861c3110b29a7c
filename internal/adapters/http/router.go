package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/marcdasilva/passtheplate/internal/pkg/metrics"
)

const (
	requestTimeout = 15 * time.Second
	// Model calls walk an endpoint chain, each attempt with its own deadline.
	aiRequestTimeout = 60 * time.Second
)

// legacySunset is when the unversioned /api aliases go away.
var legacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// legacyRoutes maps the original /api paths to their /v1 successors.
var legacyRoutes = []DeprecatedRoute{
	{Path: "/api/describe-image", SunsetDate: legacySunset, Alternative: "/v1/ai/describe-image"},
	{Path: "/api/estimate-donation-value", SunsetDate: legacySunset, Alternative: "/v1/ai/estimate-value"},
	{Path: "/api/moderate-donation", SunsetDate: legacySunset, Alternative: "/v1/ai/moderate"},
	{Path: "/api/estimate-statistics", SunsetDate: legacySunset, Alternative: "/v1/ai/estimate-statistics"},
	{Path: "/api/convert-coordinates", SunsetDate: legacySunset, Alternative: "/v1/locations/name"},
	{Path: "/api/highest-need", SunsetDate: legacySunset, Alternative: "/v1/predictions/highest-need"},
	{Path: "/api/create-checkout-session", SunsetDate: legacySunset, Alternative: "/v1/payments/checkout"},
	{Path: "/api/stripe-webhook", SunsetDate: legacySunset, Alternative: "/v1/payments/webhook"},
	{Path: "/api/redeem-gift-card", SunsetDate: legacySunset, Alternative: "/v1/rewards/redeem"},
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestContextMiddleware())
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per IP; provider webhooks are exempt.
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/v1/payments/webhook" || c.Path() == "/api/stripe-webhook"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

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

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	auth := RequireAuth(deps.Tokens)
	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}
	withAITimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, aiRequestTimeout)
	}

	v1 := app.Group("/v1")

	v1.Get("/donations", withTimeout(ListDonationsHandler(deps)))
	v1.Get("/donations/nearby", withTimeout(NearbyDonationsHandler(deps)))
	v1.Post("/donations/images", auth, withTimeout(UploadDonationImageHandler(deps)))
	v1.Get("/donations/:id", withTimeout(GetDonationHandler(deps)))
	v1.Post("/donations", auth, withTimeout(CreateDonationHandler(deps)))
	v1.Post("/donations/:id/claim", auth, withTimeout(ClaimDonationHandler(deps)))
	v1.Post("/donations/:id/complete", auth, withTimeout(CompleteDonationHandler(deps)))
	v1.Delete("/donations/:id", auth, withTimeout(DeleteDonationHandler(deps)))

	v1.Get("/requests", withTimeout(ListRequestsHandler(deps)))
	v1.Get("/requests/clusters", withTimeout(RequestClustersHandler(deps)))
	v1.Get("/requests/:id", withTimeout(GetRequestHandler(deps)))
	v1.Post("/requests", auth, withTimeout(CreateRequestHandler(deps)))
	v1.Patch("/requests/:id", auth, withTimeout(UpdateRequestHandler(deps)))
	v1.Delete("/requests/:id", auth, withTimeout(DeleteRequestHandler(deps)))

	v1.Put("/profiles/me", auth, withTimeout(SaveProfileHandler(deps)))
	v1.Post("/profiles/me/avatar", auth, withTimeout(UploadAvatarHandler(deps)))
	v1.Delete("/profiles/me/avatar", auth, withTimeout(DeleteAvatarHandler(deps)))
	v1.Get("/profiles/:id", withTimeout(GetProfileHandler(deps)))
	v1.Get("/profiles/:id/exists", withTimeout(ProfileExistsHandler(deps)))

	v1.Post("/ai/describe-image", withAITimeout(DescribeImageHandler(deps)))
	v1.Post("/ai/estimate-value", withAITimeout(EstimateValueHandler(deps)))
	v1.Post("/ai/moderate", withAITimeout(ModerateHandler(deps)))
	v1.Post("/ai/estimate-statistics", withAITimeout(EstimateStatisticsHandler(deps)))

	v1.Post("/locations/name", withAITimeout(NameLocationHandler(deps)))
	v1.Get("/connections", withAITimeout(ConnectionsHandler(deps)))

	v1.Get("/predictions/highest-need", withTimeout(HighestNeedHandler(deps)))
	v1.Get("/predictions", withTimeout(ListPredictionsHandler(deps)))

	v1.Post("/payments/checkout", withTimeout(CreateCheckoutHandler(deps)))
	v1.Post("/payments/webhook", withTimeout(StripeWebhookHandler(deps)))

	v1.Post("/rewards/redeem", auth, withTimeout(RedeemGiftCardHandler(deps)))

	// Unversioned paths kept for clients built against the first release.
	legacy := app.Group("/api")
	legacy.Post("/describe-image", withAITimeout(DescribeImageHandler(deps)))
	legacy.Post("/estimate-donation-value", withAITimeout(EstimateValueHandler(deps)))
	legacy.Post("/moderate-donation", withAITimeout(ModerateHandler(deps)))
	legacy.Post("/estimate-statistics", withAITimeout(EstimateStatisticsHandler(deps)))
	legacy.Post("/convert-coordinates", withAITimeout(NameLocationHandler(deps)))
	legacy.Get("/highest-need", withTimeout(HighestNeedHandler(deps)))
	legacy.Post("/create-checkout-session", withTimeout(CreateCheckoutHandler(deps)))
	legacy.Post("/stripe-webhook", withTimeout(StripeWebhookHandler(deps)))
	legacy.Post("/redeem-gift-card", auth, withTimeout(RedeemGiftCardHandler(deps)))

	app.Post("/graphql", withAITimeout(GraphQLHandler(deps)))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if userID := optionalUser(c, deps.Tokens); userID != "" {
			setUser(c, userID)
		}
		return c.Next()
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
