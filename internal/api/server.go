// Package api exposes a read-only HTTP view of a running broker.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(view BrokerView) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger())
	router.Use(errorHandler())

	h := NewHandler(view)
	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/customers", h.Customers)
		v1.GET("/orders", h.Orders)
		v1.GET("/bootstrap", h.Bootstrap)
		v1.GET("/trace", h.Trace)
	}
	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "no such endpoint")
	})
	return router
}

// NewHandlerWithCORS wraps the router so browser dashboards on other
// origins can read it.
func NewHandlerWithCORS(view BrokerView, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(NewRouter(view))
}

// errorHandler converts panics into the JSON error envelope.
func errorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logrus.Errorf("api: recovered from panic: %v", recovered)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
		c.Abort()
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logrus.Debugf("api: %s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}
