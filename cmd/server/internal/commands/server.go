package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nominaops/staffbulk/internal/auth"
	"github.com/nominaops/staffbulk/internal/bulkedit"
	"github.com/nominaops/staffbulk/internal/httputil"
	"github.com/nominaops/staffbulk/internal/logger"
	"github.com/nominaops/staffbulk/internal/server"
	"github.com/nominaops/staffbulk/internal/store"
	memorystore "github.com/nominaops/staffbulk/internal/store/memory"
	postgresstore "github.com/nominaops/staffbulk/internal/store/postgres"
	"github.com/nominaops/staffbulk/internal/telemetry"
	"github.com/rs/cors"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"STAFFBULK_LISTEN"`
	Cert   string `help:"path to TLS cert file" default:"" env:"STAFFBULK_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"STAFFBULK_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"https://localhost" env:"STAFFBULK_CORS_ORIGINS"`

	// Authentication
	AuthSecret string `help:"shared secret used to verify platform-issued tokens" default:"" env:"STAFFBULK_AUTH_SECRET"`
	AuthIssuer string `help:"expected token issuer (optional)" default:"" env:"STAFFBULK_AUTH_ISSUER"`
	NoAuth     bool   `help:"disable authentication for API endpoints (development only)" default:"false" env:"STAFFBULK_NO_AUTH"`

	// Operational modes
	Telemetry bool `help:"enable OTLP metric export" default:"false" env:"STAFFBULK_TELEMETRY"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"postgres" env:"STAFFBULK_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"10"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"STAFFBULK_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Telemetry {
		shutdown, err := telemetry.InitTelemetry(ctx, "staffbulk-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			}()
		}
	}

	// Create stores based on store type
	var (
		employeeStore store.EmployeeStore
		companyStore  store.CompanyStore
	)

	switch c.StoreType {
	case "postgres":
		pool, err := c.createPostgresPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		employeeStore = postgresstore.NewEmployeeStore(pool)
		companyStore = postgresstore.NewCompanyStore(pool)
		log.Info().Msg("Using PostgreSQL stores")

	default:
		companies := memorystore.NewCompanyStore()
		employeeStore = memorystore.NewEmployeeStore(companies)
		companyStore = companies
		log.Info().Msg("Using in-memory stores")
	}

	// One working copy per server process; notifications fan out to the
	// log and to the browser-facing collector.
	collector := bulkedit.NewCollector()
	notifier := bulkedit.MultiNotifier{collector, bulkedit.NewLogNotifier(log)}
	session := bulkedit.NewSession(employeeStore, companyStore, notifier)

	session.Load(ctx)

	mux := http.NewServeMux()
	server.NewBulkEditHandler(session, collector).Register(mux)

	var apiHandler http.Handler = mux

	if c.NoAuth {
		log.Warn().Msg("Authentication is disabled (--no-auth). This should only be used in development!")
	} else {
		if c.AuthSecret == "" {
			return errors.New("auth secret is required (--auth-secret or STAFFBULK_AUTH_SECRET)")
		}
		if len(c.AuthSecret) < 32 {
			return errors.New("auth secret must be at least 32 bytes for HMAC-SHA256")
		}
		verifier := auth.NewVerifier([]byte(c.AuthSecret), c.AuthIssuer)
		apiHandler = verifier.Middleware()(apiHandler)
	}

	handler := withCORS(c.CORSOrigins, apiHandler)
	handler = httputil.ClientIPMiddleware()(handler)
	handler = httputil.RequestIDMiddleware()(handler)
	handler = logger.Requests(log)(handler)

	srv := configureHTTPServer(c.Listen, handler)

	if c.Cert != "" && c.Key != "" {
		log.Info().Str("addr", c.Listen).Bool("auth", !c.NoAuth).Msg("Starting HTTPS server")
		return srv.ListenAndServeTLS(c.Cert, c.Key)
	}

	log.Info().Str("addr", c.Listen).Bool("auth", !c.NoAuth).Msg("Starting HTTP server")
	return srv.ListenAndServe()
}

// createPostgresPool builds the shared connection pool, retrying with
// exponential backoff so the server survives a database that is still
// coming up.
func (c *ServerCmd) createPostgresPool(ctx context.Context) (*pgxpool.Pool, error) {
	if err := c.PostgresStore.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate postgres flags: %w", err)
	}

	poolCfg := &postgresstore.PoolConfig{
		ConnString:      c.PostgresStore.ConnString,
		MaxConns:        c.PostgresStore.MaxConns,
		MinConns:        c.PostgresStore.MinConns,
		MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
		MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
	}

	pool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		return postgresstore.NewPool(ctx, poolCfg)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(5))
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return pool, nil
}

// withCORS adds CORS support to the API handler.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	})
	return middleware.Handler(h)
}
