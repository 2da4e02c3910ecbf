package secret

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultSecretsDir is where FileProvider looks when no dir is configured.
const DefaultSecretsDir = "/run/secrets"

// ProviderFactory creates a Provider from configuration.
type ProviderFactory func(cfg map[string]any) (Provider, error)

// Registry manages provider factories.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]ProviderFactory)}
}

// NewDefaultRegistry creates a registry with the built-in "env" and "file"
// providers. The file provider reads its directory from cfg["dir"].
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("env", func(map[string]any) (Provider, error) {
		return EnvProvider{}, nil
	})
	_ = r.Register("file", func(cfg map[string]any) (Provider, error) {
		dir := DefaultSecretsDir
		if v, ok := cfg["dir"]; ok {
			s, ok := v.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("%w: file provider dir must be a non-empty string", ErrInvalidRegistration)
			}
			dir = s
		}
		return &FileProvider{Dir: dir}, nil
	})
	return r
}

// Register adds a provider factory.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	if strings.TrimSpace(name) == "" || factory == nil {
		return ErrInvalidRegistration
	}
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateProvider, name)
	}
	r.providers[name] = factory
	return nil
}

// Create instantiates a provider by name.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: provider name is required", ErrInvalidRegistration)
	}

	r.mu.RLock()
	factory, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}

	return factory(cfg)
}

// CreateAll instantiates every provider named in cfgs. On error the
// providers created so far are closed.
func (r *Registry) CreateAll(cfgs map[string]map[string]any) ([]Provider, error) {
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	providers := make([]Provider, 0, len(names))
	for _, name := range names {
		p, err := r.Create(name, cfgs[name])
		if err != nil {
			for _, created := range providers {
				err = errors.Join(err, created.Close())
			}
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// List returns registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global registry for secret providers.
var DefaultRegistry = NewDefaultRegistry()
