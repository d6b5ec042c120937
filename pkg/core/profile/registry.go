// Package profile maps EDGAR document type tags to filing type profiles.
//
// A Registry is built once from a list of profiles (built-ins merged with user
// overrides) and is read-only afterwards, so one instance can be shared by every
// worker of a batch run.
package profile

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"edgar_extract/pkg/models"
)

// Registry is an immutable set of filing type profiles indexed by type tag.
type Registry struct {
	profiles []*models.FilingTypeProfile
	byName   map[string]*models.FilingTypeProfile
	byTag    map[string]*models.FilingTypeProfile
	prefixes []string // normalized tags, longest first
}

// NewRegistry validates and indexes profiles. Each type tag may belong to one profile only.
func NewRegistry(profiles []models.FilingTypeProfile) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*models.FilingTypeProfile, len(profiles)),
		byTag:  make(map[string]*models.FilingTypeProfile),
	}

	for i := range profiles {
		p := clone(profiles[i])
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("profile %d has no name", i)
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile name %q", p.Name)
		}
		if len(p.TypeTags) == 0 {
			p.TypeTags = []string{p.Name}
		}
		for _, tag := range p.TypeTags {
			key := NormalizeTag(tag)
			if key == "" {
				return nil, fmt.Errorf("profile %q has an empty type tag", p.Name)
			}
			if owner, dup := r.byTag[key]; dup {
				return nil, fmt.Errorf("type tag %q registered by both %q and %q", tag, owner.Name, p.Name)
			}
			r.byTag[key] = p
			r.prefixes = append(r.prefixes, key)
		}
		r.byName[p.Name] = p
		r.profiles = append(r.profiles, p)
	}

	sort.Slice(r.prefixes, func(i, j int) bool {
		if len(r.prefixes[i]) != len(r.prefixes[j]) {
			return len(r.prefixes[i]) > len(r.prefixes[j])
		}
		return r.prefixes[i] < r.prefixes[j]
	})
	return r, nil
}

// MustNewRegistry is NewRegistry for profile lists known to be valid, such as Defaults().
func MustNewRegistry(profiles []models.FilingTypeProfile) *Registry {
	r, err := NewRegistry(profiles)
	if err != nil {
		panic(err)
	}
	return r
}

// Classify resolves a raw type tag. An exact tag wins; otherwise the longest registered
// tag that prefixes typeTag at a qualifier boundary ("10-K/A" -> "10-K", never
// "S-11" -> "S-1"). It returns nil when nothing matches; that is not an error.
//
// The returned profile is shared and must not be modified.
func (r *Registry) Classify(typeTag string) *models.FilingTypeProfile {
	key := NormalizeTag(typeTag)
	if key == "" {
		return nil
	}
	if p, ok := r.byTag[key]; ok {
		return p
	}
	for _, prefix := range r.prefixes {
		if len(prefix) >= len(key) || !strings.HasPrefix(key, prefix) {
			continue
		}
		next := rune(key[len(prefix)])
		if !unicode.IsLetter(next) && !unicode.IsDigit(next) {
			return r.byTag[prefix]
		}
	}
	return nil
}

// Get returns the profile registered under name.
func (r *Registry) Get(name string) (*models.FilingTypeProfile, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Profiles returns copies of all profiles in registration order.
func (r *Registry) Profiles() []models.FilingTypeProfile {
	out := make([]models.FilingTypeProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, *clone(*p))
	}
	return out
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// NormalizeTag upper-cases a type tag and collapses internal whitespace.
func NormalizeTag(tag string) string {
	return strings.ToUpper(strings.Join(strings.Fields(tag), " "))
}

// NormalizeKeyword turns a table identifier such as "consolidated_balance_sheets" or
// "nonDerivativeTable" into lowercase space-separated words for substring matching.
func NormalizeKeyword(kw string) string {
	var sb strings.Builder
	prevLower := false
	for _, r := range kw {
		switch {
		case r == '_' || r == '-':
			sb.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			sb.WriteRune(' ')
		}
		sb.WriteRune(unicode.ToLower(r))
		prevLower = unicode.IsLower(r)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func clone(p models.FilingTypeProfile) *models.FilingTypeProfile {
	p.TypeTags = append([]string(nil), p.TypeTags...)
	p.TableKeywords = append([]string(nil), p.TableKeywords...)
	p.SectionAnchors = append([]string(nil), p.SectionAnchors...)
	return &p
}
