package crn

import "github.com/google/uuid"

// NewRunID returns a fresh identifier for a simulation run.
func NewRunID() string {
	return uuid.NewString()
}
