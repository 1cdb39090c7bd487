package relay

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// ServerConfig holds the listener settings of the relay
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// NewServer wires monitoring, CORS and the relay routes into an http.Server
func NewServer(cfg ServerConfig, auth Authenticator, logger *zap.Logger) (*http.Server, error) {
	monitoring, err := MonitoringMiddleware(logger, otel.GetMeterProvider(), otel.GetTracerProvider())
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      monitoring(corsHandler(cfg.AllowedOrigins).Handler(NewHandler(auth, logger).Routes())),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}, nil
}

func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	})
}
