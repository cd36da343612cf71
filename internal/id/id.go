// Package id generates prefixed NanoIDs.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// keyAlphabet excludes '_' and '-'. Favorite keys join the user ID and the
// movie ID with '_', so user IDs must never contain it.
const keyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const keyLength = 20

// Generate creates "prefix-<nanoid>" using the default URL-safe alphabet.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// GenerateKeySafe creates an alphanumeric ID safe to embed in composite
// keys. No prefix separator is used.
func GenerateKeySafe(prefix string) (string, error) {
	id, err := gonanoid.Generate(keyAlphabet, keyLength)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + id, nil
}

// MustGenerate is like Generate but panics on entropy failure.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
