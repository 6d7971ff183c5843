package middleware

import (
	"net/http"

	"github.com/matchpoll/backend/config"
	"github.com/rs/cors"
)

// AllowCors wraps the whole API handler, preflight requests never reach the router.
func AllowCors(cfg config.Configs, handler http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.ApiServer.AllowOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", cfg.Identity.ClientTokenHeader},
		AllowCredentials: true,
	}).Handler(handler)
}
