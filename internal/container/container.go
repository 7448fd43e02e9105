package container

import (
	"net/http"

	"github.com/NAITIK-builds/Civitas/internal/authenticity"
	"github.com/NAITIK-builds/Civitas/internal/config"
	"github.com/NAITIK-builds/Civitas/internal/exif"
	"github.com/NAITIK-builds/Civitas/internal/factory"
	"github.com/NAITIK-builds/Civitas/internal/geotime"
	"github.com/NAITIK-builds/Civitas/internal/logger"
	"github.com/NAITIK-builds/Civitas/internal/observer"
	"github.com/NAITIK-builds/Civitas/internal/scene"
	"github.com/NAITIK-builds/Civitas/internal/storage"
	"github.com/NAITIK-builds/Civitas/internal/transport"
	"github.com/NAITIK-builds/Civitas/internal/verification"
)

// Container wires the verification pipeline and holds every long-lived
// dependency.
type Container struct {
	config  *config.Config
	fetcher storage.PhotoFetcher
	service *verification.Service
	metrics *observer.MetricsObserver
	handler http.Handler
}

// NewContainer builds the dependency graph from the loaded configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	fetcher, err := factory.NewPhotoFetcher(cfg)
	if err != nil {
		return nil, err
	}

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	service := verification.NewService(
		cfg.Verification,
		exif.NewExtractor(),
		geotime.NewValidator(cfg.Verification),
		authenticity.NewAnalyzer(cfg.Verification, factory.NewDetectors(cfg)...),
		scene.NewRegistry(cfg.Verification),
		events,
	)

	handler := transport.NewHandler(service, fetcher, events, metrics, cfg)

	return &Container{
		config:  cfg,
		fetcher: fetcher,
		service: service,
		metrics: metrics,
		handler: handler,
	}, nil
}

// Handler returns the HTTP handler.
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}
