// internal/domain/models/profilepicture.go
package models

// ProfilePicture is an image document. Food items reference these by
// ImageID; the cascade delete removes the ones its food items point at.
type ProfilePicture struct {
	ID     string `bson:"_id" json:"id"`
	UserID string `bson:"userId,omitempty" json:"userId,omitempty"`
	URL    string `bson:"url,omitempty" json:"url,omitempty"`
}
