package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/csvdock/csvdock/internal/ingest"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.ingest.enabled") {
		closer, err := ingest.New(ingest.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
		})
		if err != nil {
			slog.Error("failed to init module ingest", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			if a.closerFn == nil {
				a.closerFn = map[string]func(context.Context) error{}
			}
			a.closerFn["Ingest"] = closer
		}
	}
}
