// Package provider holds the per-provider selector profiles and the static
// registry that resolves a model tag to its profile.
package provider

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownProvider matches every UnknownProviderError via errors.Is.
var ErrUnknownProvider = errors.New("unknown provider")

// UnknownProviderError is returned when no profile is registered for a model.
type UnknownProviderError struct {
	Model string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Model)
}

func (e *UnknownProviderError) Is(target error) bool {
	return target == ErrUnknownProvider
}

// Registry maps model identifiers (case-sensitive) to profiles. It has no
// mutating methods, so sharing one across goroutines is safe.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry builds a registry from the given profiles. Duplicate names
// are a configuration bug and are rejected.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		if p.Name == "" {
			return nil, errors.New("profile with empty name")
		}
		if _, dup := r.profiles[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		r.profiles[p.Name] = p.clone()
	}
	return r, nil
}

// Default returns the registry with every built-in provider.
func Default() *Registry {
	r, err := NewRegistry(claudeProfile(), chatGPTProfile())
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns a copy of the profile registered for model.
func (r *Registry) Resolve(model string) (*Profile, error) {
	p, ok := r.profiles[model]
	if !ok {
		return nil, &UnknownProviderError{Model: model}
	}
	return p.clone(), nil
}

// Names lists the registered model identifiers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for n := range r.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
