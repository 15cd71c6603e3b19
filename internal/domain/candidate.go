package domain

// Candidate is a restaurant. Immutable for the duration of a session.
type Candidate struct {
	ID            string   `json:"id" gorm:"primaryKey"`
	Name          string   `json:"name"`
	Rating        float64  `json:"rating"`
	DistanceKm    float64  `json:"distanceKm"`
	AvgCostMin    int      `json:"avgCostMin"`
	AvgCostMax    int      `json:"avgCostMax"`
	AvgWaitMin    int      `json:"avgWaitMin"`
	AvgWaitMax    int      `json:"avgWaitMax"`
	MealTimeHours float64  `json:"mealTimeHours"`
	Hours         string   `json:"hours"`
	Address       string   `json:"address"`
	Phone         string   `json:"phone"`
	Services      []string `json:"services" gorm:"serializer:json"`
	FoodTypes     []string `json:"foodTypes" gorm:"serializer:json"`
	Seats         int      `json:"seats"`
	Area          string   `json:"area" gorm:"index"`
	IsOpen        bool     `json:"isOpen"`
	Images        []string `json:"images" gorm:"serializer:json"`
	Description   string   `json:"description"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	GoogleMapsURI string   `json:"googleMapsUri,omitempty"`
}

func CandidateIDs(deck []Candidate) []string {
	ids := make([]string, len(deck))
	for i, c := range deck {
		ids[i] = c.ID
	}
	return ids
}

// SameDeck reports whether a and b hold the same ids in the same order.
func SameDeck(a, b []Candidate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
