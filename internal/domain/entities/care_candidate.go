package entities

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CareCandidate is one nearby care provider, or a synthetic entry explaining
// why no providers could be listed.
type CareCandidate struct {
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	Rating           float64   `json:"rating"`
	UserRatingsTotal int       `json:"userRatingsTotal"`
	OpenNow          *bool     `json:"openNow,omitempty"`
	Location         *GeoPoint `json:"location,omitempty"`
	ImageRef         string    `json:"imageRef,omitempty"`
	ProviderID       string    `json:"providerId,omitempty"`
}
