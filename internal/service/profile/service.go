package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mekedron/placetour/internal/config"
	"github.com/mekedron/placetour/internal/domain"
)

var (
	// ErrDefaultProfileNotFound indicates config has no default profile.
	ErrDefaultProfileNotFound = errors.New("no default profile found")
	// ErrProfileNotFound indicates requested profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
)

// Loader provides config payloads.
type Loader interface {
	Load(ctx context.Context) (domain.Config, error)
}

// Resolver resolves profile names.
type Resolver struct {
	loader Loader
}

// NewResolver creates a profile resolver.
func NewResolver(loader Loader) *Resolver {
	return &Resolver{loader: loader}
}

// Find resolves explicit profile names or defaults.
func (r *Resolver) Find(ctx context.Context, profileName string) (domain.Profile, error) {
	cfg, err := r.loader.Load(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	if strings.TrimSpace(profileName) == "" {
		for _, profile := range cfg.Profiles {
			if profile.IsDefault {
				return profile, nil
			}
		}
		if len(cfg.Profiles) == 1 {
			return cfg.Profiles[0], nil
		}
		return domain.Profile{}, ErrDefaultProfileNotFound
	}

	index := IndexOf(cfg, profileName)
	if index >= 0 {
		return cfg.Profiles[index], nil
	}
	available := make([]string, 0, len(cfg.Profiles))
	for _, profile := range cfg.Profiles {
		available = append(available, profile.Name)
	}
	want := strings.ToLower(strings.TrimSpace(profileName))
	return domain.Profile{}, fmt.Errorf("%w: %s (available: %s)", ErrProfileNotFound, want, strings.Join(available, ", "))
}

// List returns all saved profiles.
func (r *Resolver) List(ctx context.Context) ([]domain.Profile, error) {
	cfg, err := r.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.Profiles, nil
}

// IndexOf returns the position of the profile named profileName, or -1.
func IndexOf(cfg domain.Config, profileName string) int {
	want := strings.TrimSpace(profileName)
	if want == "" {
		return -1
	}
	for i, profile := range cfg.Profiles {
		if strings.EqualFold(strings.TrimSpace(profile.Name), want) {
			return i
		}
	}
	return -1
}

// Upsert replaces or appends profile. When makeDefault is set, or when it is
// the only profile, every other profile loses its default flag.
func Upsert(cfg domain.Config, profile domain.Profile, makeDefault bool) domain.Config {
	profiles := make([]domain.Profile, len(cfg.Profiles))
	copy(profiles, cfg.Profiles)

	index := IndexOf(domain.Config{Profiles: profiles}, profile.Name)
	if index >= 0 {
		profile.IsDefault = profiles[index].IsDefault
		profiles[index] = profile
	} else {
		profile.IsDefault = false
		profiles = append(profiles, profile)
		index = len(profiles) - 1
	}
	if makeDefault || len(profiles) == 1 {
		for i := range profiles {
			profiles[i].IsDefault = i == index
		}
	}
	return domain.Config{Profiles: profiles}
}

// NewFileResolver constructs a resolver from local config file.
func NewFileResolver() (*Resolver, error) {
	store, err := config.NewStore()
	if err != nil {
		return nil, err
	}
	return NewResolver(store), nil
}
