// Package secrets resolves credential values from an inline value or a file,
// keeping actual secret material out of configuration files and flags.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes how to load a secret value. File, when set, takes
// precedence over Value.
type Source struct {
	// Name is used in error messages for context.
	Name string
	// Value is an inline secret, e.g. from an environment variable.
	Value string
	// File points at a file containing the secret.
	File string
}

// Load resolves src to a trimmed secret value, or an error when neither File
// nor Value contain anything usable.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		if file != "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
