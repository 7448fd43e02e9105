package factory

import (
	"fmt"

	"github.com/NAITIK-builds/Civitas/internal/authenticity"
	"github.com/NAITIK-builds/Civitas/internal/config"
	"github.com/NAITIK-builds/Civitas/internal/storage"
)

// StorageType selects the backend photos are fetched from when submitted
// by URL.
type StorageType string

const (
	HTTPStorage  StorageType = "http"
	AzureStorage StorageType = "azure"
)

// NewPhotoFetcher creates the fetcher for the configured backend.
func NewPhotoFetcher(cfg *config.Config) (storage.PhotoFetcher, error) {
	switch StorageType(cfg.StorageBackend) {
	case HTTPStorage:
		return storage.NewHTTPPhotoFetcher(cfg.MaxRequestBodySize), nil
	case AzureStorage:
		if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return storage.NewAzurePhotoFetcher(cfg.AzureAccountName, cfg.AzureAccountKey)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

// NewDetectors creates the external authenticity detectors whose credentials
// are configured. No credentials means no detectors: the pipeline then relies
// on its built-in checks alone.
func NewDetectors(cfg *config.Config) []authenticity.Detector {
	var detectors []authenticity.Detector
	if cfg.AzureModeratorKey != "" {
		detectors = append(detectors, authenticity.NewAzureModerator(cfg.AzureModeratorKey, cfg.DetectorTimeout))
	}
	if cfg.HiveAIKey != "" {
		detectors = append(detectors, authenticity.NewHiveAI(cfg.HiveAIKey, cfg.DetectorTimeout))
	}
	return detectors
}
