// Package executor runs translated search requests. The strategy (live
// catalog or offline generator) is chosen once when the service is wired.
package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/intrigue/searchforms/internal/config"
	"github.com/intrigue/searchforms/internal/graphql"
	"github.com/intrigue/searchforms/internal/logging"
	"github.com/intrigue/searchforms/internal/search"
)

// Mode names accepted in executor.mode.
const (
	ModeCatalog = "catalog"
	ModeOffline = "offline"
	ModeAuto    = "auto"
)

// AttributeDefinition describes one searchable attribute for the editor.
type AttributeDefinition = graphql.MetacardType

// Executor performs searches and supplies attribute definitions.
type Executor interface {
	// Name identifies the strategy in logs and responses.
	Name() string
	Execute(ctx context.Context, req search.Request) (*graphql.QueryResponse, error)
	// AttributeDefinitions may return nil when the strategy has none.
	AttributeDefinitions(ctx context.Context) ([]AttributeDefinition, error)
}

// New builds the strategy named by cfg.Mode. In auto mode the catalog is
// probed once; an unreachable catalog selects the offline generator.
func New(ctx context.Context, cfg config.ExecutorConfig, logger *logging.Logger) (Executor, error) {
	mode := strings.ToLower(cfg.Mode)
	if mode == "" {
		mode = ModeAuto
	}

	switch mode {
	case ModeOffline:
		logger.Info("Using offline executor", "result_count", cfg.OfflineResultCount)
		return NewDummyExecutor(cfg.OfflineResultCount), nil

	case ModeCatalog:
		return newCatalogFromConfig(cfg, logger)

	case ModeAuto:
		if cfg.Endpoint == "" {
			logger.Warn("No catalog endpoint configured, using offline executor")
			return NewDummyExecutor(cfg.OfflineResultCount), nil
		}
		catalog, err := newCatalogFromConfig(cfg, logger)
		if err != nil {
			return nil, err
		}
		probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
		defer cancel()
		if err := catalog.Ping(probeCtx); err != nil {
			logger.Warn("Catalog unreachable, using offline executor",
				"endpoint", cfg.Endpoint, "error", err)
			return NewDummyExecutor(cfg.OfflineResultCount), nil
		}
		logger.Info("Catalog reachable, using catalog executor", "endpoint", cfg.Endpoint)
		return catalog, nil

	default:
		return nil, fmt.Errorf("unsupported executor mode: %s (supported: catalog, offline, auto)", mode)
	}
}

func newCatalogFromConfig(cfg config.ExecutorConfig, logger *logging.Logger) (*CatalogExecutor, error) {
	opts := []graphql.ClientOption{graphql.WithTimeout(cfg.Timeout)}
	if cfg.AuthHeader != "" {
		opts = append(opts, graphql.WithHeader("Authorization", cfg.AuthHeader))
	}
	client, err := graphql.NewClient(cfg.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}
	return NewCatalogExecutor(client, logger, CatalogOptions{
		PageSize:      cfg.PageSize,
		AttributeTTL:  cfg.AttributeCacheTTL,
		AttributeSize: cfg.AttributeCacheSize,
	}), nil
}
