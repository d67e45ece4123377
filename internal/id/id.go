// Package id generates record identifiers and alliance invite codes.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// InviteAlphabet is the symbol set for invite codes. It leaves out 0, O, 1 and I
// so codes read aloud or copied from a screenshot cannot be confused.
const InviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultInviteCodeLength gives 32^8 (about 1.1e12) possible codes.
const DefaultInviteCodeLength = 8

// MinInviteCodeLength is the shortest code length accepted by configuration.
const MinInviteCodeLength = 8

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "ally-V1StGXR8_Z5jdHi6B-myT")
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// InviteCode draws a random invite code of the given length from InviteAlphabet.
// Uniqueness is not guaranteed here; callers resample on collision.
func InviteCode(length int) (string, error) {
	if length < MinInviteCodeLength {
		return "", fmt.Errorf("invite code length %d is below minimum %d", length, MinInviteCodeLength)
	}
	code, err := gonanoid.Generate(InviteAlphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	return code, nil
}
