// Package common contains shared constants and sentinel errors used across
// Turismap components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Collection names understood by the document service.
const (
	CollectionUsers     = "users"
	CollectionFavorites = "favorites"
	CollectionPlans     = "plans"
	CollectionProducts  = "products"
	CollectionSellers   = "sellers"
	CollectionPlaces    = "places"
)

// Collections lists every collection the document service accepts.
var Collections = []string{
	CollectionUsers,
	CollectionFavorites,
	CollectionPlans,
	CollectionProducts,
	CollectionSellers,
	CollectionPlaces,
}

// IsKnownCollection reports whether name is one of Collections.
func IsKnownCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}
