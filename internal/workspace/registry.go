// Copyright 2026 The Wsgit Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import "fmt"

// Registry is the read-only catalog of known repositories. It is
// built once at process start via RegistryBuilder and passed by
// reference to every component; there is no removal and no
// registration after Build.
type Registry struct {
	byName map[string]*Repo
	names  []string
}

// Find returns the repository registered under name.
func (r *Registry) Find(name string) (*Repo, bool) {
	repo, ok := r.byName[name]
	return repo, ok
}

// Lookup is Find with an error carrying every registered name when
// the lookup misses.
func (r *Registry) Lookup(name string) (*Repo, error) {
	repo, ok := r.byName[name]
	if !ok {
		return nil, &UnknownRepositoryError{Name: name, Known: r.Names()}
	}
	return repo, nil
}

// Names returns all registered names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// RegistryBuilder accumulates registrations and then seals them into
// a Registry.
type RegistryBuilder struct {
	reg *Registry
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{reg: &Registry{byName: make(map[string]*Repo)}}
}

// Register adds repo to the catalog. Registering a name twice is a
// configuration error.
func (b *RegistryBuilder) Register(repo *Repo) error {
	if repo.Name == "" {
		return fmt.Errorf("repository with empty name")
	}
	if _, exists := b.reg.byName[repo.Name]; exists {
		return fmt.Errorf("repository %q: %w", repo.Name, ErrDuplicateRepository)
	}
	if repo.TrackingBranch == "" {
		repo.TrackingBranch = "main"
	}
	b.reg.byName[repo.Name] = repo
	b.reg.names = append(b.reg.names, repo.Name)
	return nil
}

// Build returns the sealed registry.
func (b *RegistryBuilder) Build() *Registry {
	return b.reg
}
