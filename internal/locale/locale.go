// Package locale provides the per-market ranking profiles.
package locale

import (
	"sort"
	"strings"
)

// GenreWeight is one entry of a profile's ordered genre table.
type GenreWeight struct {
	Key    string `koanf:"key" json:"key"`
	Weight int    `koanf:"weight" json:"weight"`
}

// Profile holds the ranking inputs for one market.
type Profile struct {
	Code   string `koanf:"code" json:"code"`
	Market string `koanf:"market" json:"market"`

	PriorityGenres []string `koanf:"priority_genres" json:"priorityGenres"`

	// GenreWeights is scanned in order; the first key contained in a genre
	// tag wins for that tag.
	GenreWeights []GenreWeight `koanf:"genre_weights" json:"genreWeights"`

	SearchKeywords []string `koanf:"search_keywords" json:"searchKeywords"`

	// Boost enables the locale indicator and named-artist terms.
	Boost bool `koanf:"boost" json:"boost"`

	// Indicators are matched against artist names and genres when Boost is set.
	Indicators []string `koanf:"indicators" json:"indicators,omitempty"`

	// BoostedArtists earn the named-artist bonus when Boost is set.
	BoostedArtists []string `koanf:"boosted_artists" json:"boostedArtists,omitempty"`
}

// Table resolves locale codes to profiles. A Table is read-only once built.
type Table struct {
	profiles map[string]Profile
	aliases  map[string]string
	fallback Profile
}

// Resolve returns the profile for code. Matching is case-insensitive and
// accepts aliases such as "ko-KR". Unknown codes get the default profile
// with Market set to code verbatim.
func (t *Table) Resolve(code string) Profile {
	key := strings.ToUpper(strings.TrimSpace(code))
	if p, ok := t.profiles[key]; ok {
		return p
	}
	if target, ok := t.aliases[strings.ToLower(strings.TrimSpace(code))]; ok {
		if p, ok := t.profiles[target]; ok {
			return p
		}
	}

	p := t.fallback
	p.Code = code
	p.Market = code
	return p
}

// Codes returns the configured profile codes, sorted.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.profiles))
	for c := range t.profiles {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// NewTable builds a table from profiles. Later profiles replace earlier
// ones with the same code.
func NewTable(fallback Profile, aliases map[string]string, profiles ...Profile) *Table {
	t := &Table{
		profiles: make(map[string]Profile, len(profiles)),
		aliases:  make(map[string]string, len(aliases)),
		fallback: fallback,
	}
	for alias, code := range aliases {
		t.aliases[strings.ToLower(alias)] = strings.ToUpper(code)
	}
	for _, p := range profiles {
		p.Code = strings.ToUpper(p.Code)
		if p.Market == "" {
			p.Market = p.Code
		}
		t.profiles[p.Code] = p
	}
	return t
}

// DefaultTable returns the built-in profiles.
func DefaultTable() *Table {
	return NewTable(defaultProfile, defaultAliases, defaultProfiles...)
}
