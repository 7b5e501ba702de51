package api

import (
	"strings"

	"github.com/google/uuid"
)

const (
	telemetryIDPrefix = "tel_"
	sessionIDPrefix   = "sess_"
)

// NewTelemetryID returns a fresh telemetry record ID.
func NewTelemetryID() string {
	return telemetryIDPrefix + uuid.NewString()
}

// NewSessionID returns a fresh session ID.
func NewSessionID() string {
	return sessionIDPrefix + uuid.NewString()
}

// ValidateSessionID checks the "sess_" prefix followed by a UUID.
func ValidateSessionID(id string) bool {
	rest, ok := strings.CutPrefix(id, sessionIDPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}
