package config

import (
	"context"
	"fmt"

	"github.com/jonwraymond/lifeops/secret"
)

// ResolveSecrets replaces ${VAR} and secretref values in the credential
// fields of cfg using providers created from reg.
func ResolveSecrets(ctx context.Context, cfg *Config, reg *secret.Registry) error {
	cfgs := make(map[string]map[string]any, len(cfg.Secrets.Providers)+1)
	for name, pc := range cfg.Secrets.Providers {
		cfgs[name] = pc
	}
	if _, ok := cfgs["env"]; !ok {
		cfgs["env"] = nil
	}

	providers, err := reg.CreateAll(cfgs)
	if err != nil {
		return fmt.Errorf("failed to create secret providers: %w", err)
	}

	resolver := secret.NewResolver(cfg.Secrets.Strict, providers...)
	defer func() { _ = resolver.Close() }()

	if err := resolver.ResolveInPlace(ctx,
		&cfg.Postgres.DSN,
		&cfg.Redis.Password,
		&cfg.HTTP.JWTSecret,
	); err != nil {
		return fmt.Errorf("failed to resolve secrets: %w", err)
	}
	return nil
}
