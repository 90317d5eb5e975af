// Package userdirectory implements UserDirectory (component C3, spec.md
// §2): map (provider, source-control user id) -> contest-platform handle.
package userdirectory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
)

type cacheEntry struct {
	handle    string
	expiresAt time.Time
}

// Directory resolves handles by asking the source-control registry for the
// username at a given id (no separate identity-mapping store is specified
// by spec.md §2), then memoizing the result with a short TTL so repeated
// lookups for the same ticket's events don't re-hit the source-control API.
type Directory struct {
	registry ports.ProviderRegistry
	ttl      time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewDirectory builds a Directory backed by registry, caching resolved
// handles for ttl.
func NewDirectory(registry ports.ProviderRegistry, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Directory{registry: registry, ttl: ttl, cache: make(map[string]cacheEntry)}
}

// ResolveHandle implements ports.UserDirectory. The source-control username
// is taken as the contest handle. It never returns NotFound: every failed
// lookup, an unknown user id included, is returned as the registry's or the
// source-control client's error.
func (d *Directory) ResolveHandle(ctx context.Context, provider entities.Provider, sourceControlUserID int64) (string, error) {
	key := string(provider) + ":" + strconv.FormatInt(sourceControlUserID, 10)

	d.mu.Lock()
	if entry, ok := d.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		d.mu.Unlock()
		return entry.handle, nil
	}
	d.mu.Unlock()

	client, err := d.registry.For(provider)
	if err != nil {
		return "", err
	}
	handle, err := client.ResolveUsername(ctx, sourceControlUserID)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.cache[key] = cacheEntry{handle: handle, expiresAt: time.Now().Add(d.ttl)}
	d.mu.Unlock()

	return handle, nil
}

// ResolveCopilot implements ports.UserDirectory. The copilot handle is
// already a contest-platform username on the Project row (spec.md §3), so
// this is a direct passthrough with no remote call.
func (d *Directory) ResolveCopilot(ctx context.Context, project *entities.Project) (string, error) {
	return project.Copilot, nil
}

var _ ports.UserDirectory = (*Directory)(nil)
