// internal/domain/models/fooditem.go
package models

// FoodItem is a tracked perishable. Only the reference fields are modeled;
// item attributes (name, expiry, quantity) are owned by the inventory area.
type FoodItem struct {
	ID          string `bson:"_id" json:"id"`
	UserID      string `bson:"userId" json:"userId"`                               // original owner, immutable
	HouseholdID string `bson:"householdId,omitempty" json:"householdId,omitempty"` // follows the owner's household
	ImageID     string `bson:"imageId,omitempty" json:"imageId,omitempty"`
}
