package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/summitcrm/pipeline-api/internal/config"
	"go.uber.org/zap"
)

func allowAnyOrigin(r *http.Request, origin string) bool {
	return origin != ""
}

func denyAllOrigins(r *http.Request, origin string) bool {
	return false
}

// CORS builds the cross-origin policy from config. A "*" entry or an empty
// origin list in development opens everything; an empty list anywhere else
// denies every cross-origin request rather than silently defaulting open.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	devLike := environment == "development" || environment == "local" || environment == ""

	switch {
	case hasWildcard(cfg.AllowedOrigins):
		if !devLike {
			logger.Warn("CORS wildcard origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAnyOrigin

	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS origins", zap.Strings("origins", cfg.AllowedOrigins))

	case devLike:
		options.AllowOriginFunc = allowAnyOrigin
		logger.Info("CORS open for development")

	default:
		// the chi cors handler treats an empty origin list as "*", so an
		// explicit deny func is required to actually close the door
		options.AllowOriginFunc = denyAllOrigins
		logger.Warn("CORS has no allowed origins, denying all cross-origin requests",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func hasWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
