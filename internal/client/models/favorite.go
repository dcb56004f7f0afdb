package models

import "time"

// FavoriteEntry is a place marked as favorite by the current user.
// Entries are unique by PlaceID.
type FavoriteEntry struct {
	PlaceID string  `json:"placeId"`
	Title   string  `json:"title"`
	Rating  float64 `json:"rating"`

	// ImageRef is kept on the device only and never sent to the server.
	ImageRef string `json:"image,omitempty"`
}

// PendingRemoval is a favorite that was removed locally and will be deleted
// remotely once Expiry passes, unless the removal is undone first.
type PendingRemoval struct {
	Entry  FavoriteEntry `json:"entry"`
	Expiry time.Time     `json:"expiry"`
}
