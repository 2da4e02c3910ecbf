package cache

import (
	"context"
)

// RenderFunc produces the bytes to memoize.
type RenderFunc func(ctx context.Context) ([]byte, error)

// Memoizer serves repeated renders of the same scope and input from a Cache.
type Memoizer struct {
	cache  Cache
	keyer  Keyer
	policy Policy
}

// NewMemoizer creates a memoizer. A nil keyer uses DefaultKeyer.
func NewMemoizer(cache Cache, keyer Keyer, policy Policy) *Memoizer {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &Memoizer{
		cache:  cache,
		keyer:  keyer,
		policy: policy,
	}
}

// Do returns the cached bytes for (scope, input) or calls render and caches
// its result. Errors are never cached. A nil cache, a disabled policy or an
// invalid key fall through to render.
func (m *Memoizer) Do(ctx context.Context, scope string, input any, render RenderFunc) ([]byte, error) {
	if m == nil || m.cache == nil || !m.policy.ShouldCache() {
		return render(ctx)
	}

	key, err := m.keyer.Key(scope, input)
	if err != nil || ValidateKey(key) != nil {
		return render(ctx)
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		return cached, nil
	}

	result, err := render(ctx)
	if err != nil {
		return result, err
	}

	_ = m.cache.Set(ctx, key, result, m.policy.EffectiveTTL(0))

	return result, nil
}

// Invalidate drops the cached entry for (scope, input).
func (m *Memoizer) Invalidate(ctx context.Context, scope string, input any) error {
	if m == nil || m.cache == nil {
		return nil
	}
	key, err := m.keyer.Key(scope, input)
	if err != nil {
		return err
	}
	return m.cache.Delete(ctx, key)
}
