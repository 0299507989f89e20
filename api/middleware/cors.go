package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// Origins allowed to call the API: the local frontend, the campus
// portal, and the staging deployment.
var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"https://equiplend.example.edu",
	"https://equiplend-staging.fly.dev",
}

func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
