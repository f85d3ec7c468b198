package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taxiride/ride-hailing/pkg/logger"
	"github.com/taxiride/ride-hailing/pkg/monitoring"
	"go.uber.org/zap"
)

const unmatchedRoute = "unmatched"

// Metrics counts requests and observes latency per route template
func Metrics(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method
		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RequestLogger logs every request with the structured logger
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= 500 {
			log.Error("HTTP request", fields...)
			return
		}
		log.Debug("HTTP request", fields...)
	}
}
