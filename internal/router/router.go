// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ramikh/marketplace-auction/internal/handler"
	"github.com/ramikh/marketplace-auction/internal/middleware"
	"github.com/ramikh/marketplace-auction/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes. Unauthenticated operations
// live under /v1/auth; the protected profile endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleBuyer, model.RoleSeller, model.RoleAdmin))
	auth.GET("/me", a.Me)
	auth.PUT("/me/device-token", a.UpdateDeviceToken)
}

// RegisterAds registers the public listing reads, the seller creation
// endpoint and the admin approval that starts an auction round.
func RegisterAds(e *echo.Echo, a *handler.AdHandler, jwtSecret string) {
	e.GET("/v1/ads/:id", a.GetAd)

	seller := e.Group("/v1")
	seller.Use(middleware.JWTAuth(jwtSecret))
	seller.Use(middleware.RequireRole(model.RoleSeller))
	seller.POST("/ads", a.CreateAd)

	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/ads/:id/approve", a.ApproveAd)
}

// RegisterBids registers bid placement and the bid listing endpoints.
// rateLimit guards the placement route; pass nil when rate limiting is
// disabled.
func RegisterBids(e *echo.Echo, b *handler.BidHandler, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	e.GET("/v1/ads/:id/bids", b.ListAdBids)

	buyer := e.Group("/v1")
	buyer.Use(middleware.JWTAuth(jwtSecret))
	buyer.Use(middleware.RequireRole(model.RoleBuyer))
	if rateLimit != nil {
		buyer.POST("/ads/:id/bids", b.PlaceBid, rateLimit)
	} else {
		buyer.POST("/ads/:id/bids", b.PlaceBid)
	}
	buyer.GET("/my-bids", b.MyBids)

	seller := e.Group("/v1")
	seller.Use(middleware.JWTAuth(jwtSecret))
	seller.Use(middleware.RequireRole(model.RoleSeller))
	seller.GET("/my-ads/bids", b.SellerBids)
}
