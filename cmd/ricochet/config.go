package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/ricochet/state"
)

var errUnknownKeys = errors.New("unknown config keys")

// loadConfig overlays a TOML file on the default startup state
// Keys follow the preset format's [global] table without the header; unknown keys are rejected
func loadConfig(path string) (state.Global, error) {
	g := state.DefaultGlobal()
	if path == "" {
		return g, nil
	}

	md, err := toml.DecodeFile(path, &g)
	if err != nil {
		return state.DefaultGlobal(), fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return state.DefaultGlobal(), fmt.Errorf("config %s: %s: %w", path, strings.Join(keys, ", "), errUnknownKeys)
	}
	return g.Sanitize(), nil
}
