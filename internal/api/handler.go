// Package api exposes the operator-facing control API: route CRUD
// forwarded to the routing engine, plus health and metrics.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snigate/snigate/internal/config"
	"github.com/snigate/snigate/internal/domain"
	"github.com/snigate/snigate/internal/engine"
	"github.com/snigate/snigate/internal/metrics"
	"github.com/snigate/snigate/pkg/logging"
)

// RouteService is the slice of the proxy facade the API needs.
type RouteService interface {
	AddRoute(ctx context.Context, route, target string) error
	DeleteRoute(ctx context.Context, route string) error
	GetAllRoutes(ctx context.Context) (map[string]string, error)
	Health(ctx context.Context) error
	State() engine.State
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handler holds the HTTP handlers and dependencies.
type Handler struct {
	cfg     *config.Config
	svc     RouteService
	metrics *metrics.Collector
	logger  *logging.Logger
}

// NewHandler creates a new API handler. collector may be nil.
func NewHandler(cfg *config.Config, svc RouteService, collector *metrics.Collector, logger *logging.Logger) *Handler {
	return &Handler{
		cfg:     cfg,
		svc:     svc,
		metrics: collector,
		logger:  logger.With("component", "api"),
	}
}

// Router returns the configured Gin router.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", h.health)
	r.GET("/readyz", h.ready)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	v1.Use(APIKeyAuth(h.cfg.Server.APIKey))
	{
		v1.GET("/routes", h.listRoutes)
		v1.PUT("/routes/:route", h.putRoute)
		v1.DELETE("/routes/:route", h.deleteRoute)
	}

	return r
}

// health reports the engine process state without touching the network.
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"engine": h.svc.State().String(),
	})
}

// ready probes the engine's management API through the route client.
func (h *Handler) ready(c *gin.Context) {
	if err := h.svc.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// listRoutes returns the engine's whole route table.
func (h *Handler) listRoutes(c *gin.Context) {
	routes, err := h.svc.GetAllRoutes(c.Request.Context())
	if err != nil {
		h.routeError(c, err)
		return
	}
	c.JSON(http.StatusOK, routes)
}

type putRouteRequest struct {
	Target string `json:"target" binding:"required"`
}

// putRoute upserts one route.
func (h *Handler) putRoute(c *gin.Context) {
	route := c.Param("route")

	var req putRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "target is required",
			Code:  "BAD_REQUEST",
		})
		return
	}

	if err := h.svc.AddRoute(c.Request.Context(), route, req.Target); err != nil {
		h.routeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": route, "target": req.Target})
}

// deleteRoute removes one route; absent routes also return 204.
func (h *Handler) deleteRoute(c *gin.Context) {
	if err := h.svc.DeleteRoute(c.Request.Context(), c.Param("route")); err != nil {
		h.routeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// routeError maps engine failures onto control API status codes.
func (h *Handler) routeError(c *gin.Context, err error) {
	h.logger.Error("route operation failed", "error", err)

	switch {
	case errors.Is(err, domain.ErrEngineAuth):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: err.Error(),
			Code:  "ENGINE_AUTH",
		})
	case domain.IsTransient(err):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: err.Error(),
			Code:  "ENGINE_UNAVAILABLE",
		})
	default:
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: err.Error(),
			Code:  "ENGINE_REJECTED",
		})
	}
}
