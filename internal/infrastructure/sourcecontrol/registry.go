package sourcecontrol

import (
	"fmt"

	"github.com/topcoder-platform/topcoder-x-processor/internal/config"
	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
)

// Registry resolves the configured SourceControlClient per provider
// (ports.ProviderRegistry).
type Registry struct {
	clients map[entities.Provider]ports.SourceControlClient
}

// NewRegistry builds both provider adapters from cfg. Either token may be
// empty if that provider is unused; calling For on an unconfigured
// provider returns a Fatal error (a programmer/config error, not a
// transient one).
func NewRegistry(cfg config.SourceControlConfig) (*Registry, error) {
	clients := make(map[entities.Provider]ports.SourceControlClient, 2)

	if cfg.GitHubToken != "" {
		gh, err := NewGitHubClient(cfg.GitHubToken, cfg.GitHubBaseURL)
		if err != nil {
			return nil, err
		}
		clients[entities.ProviderGitHub] = gh
	}
	if cfg.GitLabToken != "" {
		gl, err := NewGitLabClient(cfg.GitLabToken, cfg.GitLabBaseURL)
		if err != nil {
			return nil, err
		}
		clients[entities.ProviderGitLab] = gl
	}

	return &Registry{clients: clients}, nil
}

// For implements ports.ProviderRegistry.
func (r *Registry) For(provider entities.Provider) (ports.SourceControlClient, error) {
	client, ok := r.clients[provider]
	if !ok {
		return nil, domainerrors.Fatal(fmt.Sprintf("no source control client configured for provider %q", provider), nil)
	}
	return client, nil
}

var _ ports.ProviderRegistry = (*Registry)(nil)
