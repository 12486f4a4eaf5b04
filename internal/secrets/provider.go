// Package secrets resolves credential references such as
// "env:VITE_SUPABASE_ANON_KEY" or "doppler:stg_homologacao/VITE_SUPABASE_SECRET"
// into secret values through pluggable providers.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a provider has no value for a key.
var ErrNotFound = errors.New("secret not found")

// Provider returns the secret stored under key.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, key string) (string, error)

func (f ProviderFunc) Get(ctx context.Context, key string) (string, error) { return f(ctx, key) }

// Resolver dispatches "scheme:key" references to registered providers.
// References without a scheme go to the "env" provider.
type Resolver struct {
	providers map[string]Provider
}

func NewResolver() *Resolver {
	return &Resolver{providers: make(map[string]Provider)}
}

// Register binds scheme to p, replacing any previous binding.
func (r *Resolver) Register(scheme string, p Provider) *Resolver {
	r.providers[scheme] = p
	return r
}

// Resolve returns the secret for ref. An empty ref means the endpoint needs
// no credential and resolves to "".
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}

	scheme, key := "env", ref
	if i := strings.IndexByte(ref, ':'); i > 0 {
		scheme, key = ref[:i], ref[i+1:]
	}

	p, ok := r.providers[scheme]
	if !ok {
		return "", fmt.Errorf("no secrets provider for %q (reference %q)", scheme, ref)
	}
	secret, err := p.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", ref, err)
	}
	if secret == "" {
		return "", fmt.Errorf("resolve %s: %w", ref, ErrNotFound)
	}
	return secret, nil
}
