// internal/domain/models/household.go
package models

// HouseholdType controls how many members a household may keep.
type HouseholdType string

const (
	HouseholdSingle HouseholdType = "Single" // owner only
	HouseholdPair   HouseholdType = "Pair"   // owner + one selected member
	HouseholdGroup  HouseholdType = "Group"  // unrestricted
)

// Valid reports whether t is one of the known household types.
func (t HouseholdType) Valid() bool {
	switch t {
	case HouseholdSingle, HouseholdPair, HouseholdGroup:
		return true
	}
	return false
}

// Household is the group entity that owns member users and their
// dependent records (food items, activities).
//
// NOTE:
//   - Users always contains OwnerID while the household exists.
//   - Each id in Users must resolve to a User whose HouseholdID equals ID.
//     The membership engine is the only writer that keeps both sides in step.
type Household struct {
	ID        string        `bson:"_id" json:"id"`
	Name      string        `bson:"name" json:"name"`
	Type      HouseholdType `bson:"type" json:"type"`
	OwnerID   string        `bson:"ownerId" json:"ownerId"`
	Users     []string      `bson:"users" json:"users"`
	Invites   []string      `bson:"invites" json:"invites"`
	CreatedAt int64         `bson:"createdAt" json:"createdAt"` // epoch millis, set once
}

// HasMember reports whether userID is listed in the household's users.
func (h Household) HasMember(userID string) bool {
	for _, u := range h.Users {
		if u == userID {
			return true
		}
	}
	return false
}

// HasInvite reports whether token is a pending invite.
func (h Household) HasInvite(token string) bool {
	for _, t := range h.Invites {
		if t == token {
			return true
		}
	}
	return false
}
