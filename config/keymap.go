package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/4cecoder/shipsync/handlers"
)

type Keymap map[string]handlers.Control

type keymapFile struct {
	Bindings map[string]string `yaml:"bindings"`
}

func DefaultKeymap() Keymap {
	return Keymap{
		"w":     handlers.ControlForward,
		"s":     handlers.ControlBackward,
		"a":     handlers.ControlLeft,
		"d":     handlers.ControlRight,
		"space": handlers.ControlFire,
	}
}

// LoadKeymap reads key bindings from path, or returns the defaults when
// path is empty.
func LoadKeymap(path string) (Keymap, error) {
	if path == "" {
		return DefaultKeymap(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseKeymap(raw)
}

func ParseKeymap(raw []byte) (Keymap, error) {
	var f keymapFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("keymap: %w", err)
	}
	if len(f.Bindings) == 0 {
		return nil, fmt.Errorf("keymap: no bindings")
	}
	km := make(Keymap, len(f.Bindings))
	for key, name := range f.Bindings {
		c, err := handlers.ParseControl(name)
		if err != nil {
			return nil, fmt.Errorf("keymap: key %q: %w", key, err)
		}
		km[strings.ToLower(key)] = c
	}
	return km, nil
}
