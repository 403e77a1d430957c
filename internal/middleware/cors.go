package middleware

import (
	"github.com/Lelcaren/mwangaza-rentals/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// exposedHeaders are response headers the dashboard reads: the correlation id and the
// filename of spreadsheet exports.
var exposedHeaders = []string{RequestIDHeader, "Content-Disposition"}

// CORS builds the gin-contrib/cors handler from the configured origins, methods and headers.
// A wildcard origin list allows every origin without credentials.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  cfg.Methods,
		AllowHeaders:  cfg.Headers,
		ExposeHeaders: exposedHeaders,
		MaxAge:        cfg.MaxAge,
	}
	if cfg.AllowsAnyOrigin() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.Origins
		c.AllowCredentials = cfg.AllowCredentials
	}
	return cors.New(c)
}
