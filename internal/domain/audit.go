package domain

import "time"

// AuditEntry records one successful transition.
type AuditEntry struct {
	ID              string
	Action          Action
	Source          Source
	Timestamp       time.Time
	Mode            Mode
	PreviousMode    Mode
	DurationMinutes int
}

// FeatureFlag is a one-time marker for onboarding objectives.
type FeatureFlag string

const (
	FlagReconnectUsed  FeatureFlag = "objectives_reconnect_used"
	FlagDisconnectUsed FeatureFlag = "objectives_disconnect_used"
)

// FeatureFlagState is a flag together with when it was first set.
type FeatureFlagState struct {
	Flag  FeatureFlag
	SetAt time.Time
}
