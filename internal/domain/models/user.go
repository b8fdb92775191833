// internal/domain/models/user.go
package models

// User is the partial view of a user document that household membership
// reads and writes. Other user fields belong to the account feature area
// and are never touched here.
type User struct {
	ID          string `bson:"_id" json:"id"`
	HouseholdID string `bson:"householdId,omitempty" json:"householdId,omitempty"` // empty when not in a household
}
