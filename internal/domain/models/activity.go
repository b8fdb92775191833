// internal/domain/models/activity.go
package models

// Activity is a history entry. It is addressed either by HouseholdID
// (household-scoped) or by UserID, never both.
type Activity struct {
	ID          string `bson:"_id" json:"id"`
	HouseholdID string `bson:"householdId,omitempty" json:"householdId,omitempty"`
	UserID      string `bson:"userId,omitempty" json:"userId,omitempty"`
	Timestamp   int64  `bson:"timestamp" json:"timestamp"` // epoch millis
	Deleted     bool   `bson:"deleted" json:"deleted"`
}
