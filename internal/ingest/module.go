package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/csvdock/csvdock/internal/ingest/blob"
	"github.com/csvdock/csvdock/internal/ingest/event"
	"github.com/csvdock/csvdock/internal/ingest/inbound"
	"github.com/csvdock/csvdock/internal/ingest/store"
	"github.com/csvdock/csvdock/internal/ingest/usecase"
	"github.com/csvdock/csvdock/internal/pkg/pkgconfig"
	"github.com/csvdock/csvdock/internal/pkg/pkgrouter"
	"github.com/csvdock/csvdock/internal/pkg/pkgroutine"
	"github.com/csvdock/csvdock/internal/pkg/pkguid"
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context

	// ID overrides the upload identifier generator; nil means the default
	// upload_<millis>_<random> format.
	ID pkguid.StringID
}

func New(dep Dependency) (func(context.Context) error, error) {
	ledger, err := store.Open(dep.Config.GetString("database.dsn"))
	if err != nil {
		return nil, fmt.Errorf("open upload ledger: %w", err)
	}

	objects, err := blob.New(dep.Context, blob.Config{
		Bucket:        dep.Config.GetString("storage.bucket"),
		Region:        dep.Config.GetString("storage.region"),
		Endpoint:      dep.Config.GetString("storage.endpoint"),
		UsePathStyle:  dep.Config.GetBool("storage.path_style"),
		PublicBaseURL: dep.Config.GetString("storage.public_base_url"),
	})
	if err != nil {
		_ = ledger.Close()
		return nil, fmt.Errorf("init object store: %w", err)
	}

	bus := event.NewBus(512)
	consumer := event.NewNotifierConsumer(bus, event.LogNotifier{}, event.ConsumerConfig{
		Workers:     4,
		MaxRetries:  3,
		BaseBackoff: 200 * time.Millisecond,
	})
	consumer.Start()

	if dep.ID == nil {
		dep.ID = pkguid.NewUpload()
	}

	keys, err := pkguid.NewSnowflake()
	if err != nil {
		_ = ledger.Close()
		return nil, fmt.Errorf("init key generator: %w", err)
	}

	uc := usecase.New(usecase.Dependency{
		Store:   ledger,
		Objects: objects,
		Events:  bus,
		Runner:  dep.Goroutine,
		ID:      dep.ID,
		Keys:    keys,
		RootCtx: dep.Context,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	closer := func(ctx context.Context) error {
		return errors.Join(consumer.Stop(ctx), ledger.Close())
	}
	return closer, nil
}
