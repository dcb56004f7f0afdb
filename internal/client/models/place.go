package models

// PlaceCategory groups places for browsing.
type PlaceCategory string

const (
	CategoryCultural  PlaceCategory = "cultural"
	CategoryNature    PlaceCategory = "nature"
	CategoryAdventure PlaceCategory = "adventure"
	CategoryCraft     PlaceCategory = "craft"
)

// Sections the home screen lists places under.
const (
	SectionSuggested = "suggested"
	SectionPopular   = "popular"
)

// Place is a point of interest from the read-only places collection.
// Favorites, plans and products refer to places by ID.
type Place struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Location    string        `json:"location"`
	Rating      float64       `json:"rating"`
	ImageRef    string        `json:"image,omitempty"`
	Description string        `json:"description"`
	Category    PlaceCategory `json:"category"`
	Section     string        `json:"section,omitempty"`

	// SellerID and SellerName name the seller featured at the place, if any.
	SellerID   string `json:"sellerId,omitempty"`
	SellerName string `json:"sellerName,omitempty"`
}

// Favorite is the favorite entry for p.
func (p Place) Favorite() FavoriteEntry {
	return FavoriteEntry{PlaceID: p.ID, Title: p.Title, Rating: p.Rating, ImageRef: p.ImageRef}
}
