// Package idgen mints feature IDs.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Prefix marks every feature ID.
	Prefix = "ft-"

	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// idLen random characters follow the prefix; 62^12 keeps collisions out
	// of reach for one workspace.
	idLen = 12
)

// Generate returns a fresh feature ID such as "ft-4kQz0aB9xWm2".
func Generate() (string, error) {
	id, err := nanoid.Generate(alphabet, idLen)
	if err != nil {
		return "", fmt.Errorf("generating feature id: %w", err)
	}
	return Prefix + id, nil
}
