package koanf

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Provide loads the configuration of a service from environment variables,
// on top of the defaults given in def. Variables are prefixed with the
// uppercased service name, and `__` maps to nesting, so for service "chat"
// the variable CHAT_HTTP__ADDRESS sets the `http.address` key.
func Provide[T any](service string, def T) T {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(def, "koanf"), nil); err != nil {
		panic(fmt.Errorf("load default config: %w", err))
	}

	prefix := strings.ToUpper(service) + "_"
	if err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "__", ".")
	}), nil); err != nil {
		panic(fmt.Errorf("load config from env: %w", err))
	}

	var cnf T
	if err := k.Unmarshal("", &cnf); err != nil {
		panic(fmt.Errorf("unmarshal config: %w", err))
	}

	return cnf
}
