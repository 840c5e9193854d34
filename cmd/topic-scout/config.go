// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// setDefaults registers every field of types.DefaultConfig as a viper
// default so that environment variables and partial config files override
// individual keys.
func setDefaults(v *viper.Viper) {
	data, err := json.Marshal(types.DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("encoding default config: %v", err))
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		panic(fmt.Sprintf("decoding default config: %v", err))
	}
	flatten("", tree, v.SetDefault)
}

func flatten(prefix string, tree map[string]any, set func(string, any)) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			flatten(key, sub, set)
			continue
		}
		set(key, val)
	}
}

// loadConfig decodes the merged configuration and validates it.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
