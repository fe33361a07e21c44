package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/csvdock/csvdock/internal/pkg/pkgconfig"
	"github.com/csvdock/csvdock/internal/pkg/pkgrouter"
	"github.com/csvdock/csvdock/internal/pkg/pkgroutine"
	"github.com/csvdock/csvdock/internal/pkg/pkguid"
)

func (a *App) initConfig() {
	// Local runs keep credentials in a .env file; in containers the
	// variables are injected by the runtime and the file is absent.
	_ = godotenv.Load()

	path := "/config/config.yaml"
	if os.Getenv("LOCAL") == "true" {
		path = "./config/config.yaml"
	}

	cfg, err := pkgconfig.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	// Both the ledger DSN and the bucket are hard requirements; refusing to
	// boot is better than accepting uploads we can neither store nor record.
	if dsn := firstNonEmpty(os.Getenv("DATABASE_DSN"), cfg.GetString("database.dsn")); dsn == "" {
		slog.Error("database.dsn (or DATABASE_DSN) is required")
		os.Exit(1)
	}
	if cfg.GetString("storage.bucket") == "" {
		slog.Error("storage.bucket is required")
		os.Exit(1)
	}

	a.config = cfg
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(int(a.config.GetInt("modules.ingest.max_workers")))
	a.uuid = pkguid.NewUUID()
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

//nolint:unparam // is always nil
func (a *App) initClosers() {
	if a.closerFn == nil {
		a.closerFn = map[string]func(context.Context) error{}
	}

	a.closerFn["HTTP Server"] = func(ctx context.Context) error {
		return a.httpServer.Shutdown(ctx)
	}
	a.closerFn["Config"] = func(context.Context) error {
		return a.config.Close()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
