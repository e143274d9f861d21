package utils

import "github.com/google/uuid"

// GenerateUUID returns a fresh random UUID string. Session ids and user ids
// are both UUIDs; uuid.Nil is the failure sentinel everywhere.
func GenerateUUID() string {
	return uuid.New().String()
}
