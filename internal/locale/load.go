package locale

import (
	"errors"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrInvalidProfile is returned when a profile file entry has no code.
var ErrInvalidProfile = errors.New("locale profile missing code")

type tableFile struct {
	Default  *Profile          `koanf:"default"`
	Aliases  map[string]string `koanf:"aliases"`
	Profiles []Profile         `koanf:"profiles"`
}

// LoadTable reads a YAML profile file and overlays it on the built-in table.
// Profiles in the file replace built-in profiles with the same code.
//
//	profiles:
//	  - code: KR
//	    boost: true
//	    genre_weights:
//	      - {key: k-pop, weight: 50}
func LoadTable(path string) (*Table, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading locale profiles %s: %w", path, err)
	}

	var f tableFile
	if err := k.Unmarshal("", &f); err != nil {
		return nil, fmt.Errorf("decoding locale profiles: %w", err)
	}

	for i, p := range f.Profiles {
		if p.Code == "" {
			return nil, fmt.Errorf("profile %d: %w", i, ErrInvalidProfile)
		}
	}

	fallback := defaultProfile
	if f.Default != nil {
		fallback = *f.Default
	}

	aliases := make(map[string]string, len(defaultAliases)+len(f.Aliases))
	for a, c := range defaultAliases {
		aliases[a] = c
	}
	for a, c := range f.Aliases {
		aliases[a] = c
	}

	profiles := append(append([]Profile{}, defaultProfiles...), f.Profiles...)
	return NewTable(fallback, aliases, profiles...), nil
}
