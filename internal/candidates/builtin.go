package candidates

import "github.com/DoyleJ11/dinedecide/internal/domain"

// Builtin is the bundled fallback catalogue.
func Builtin() []domain.Candidate {
	return []domain.Candidate{
		{ID: "b1", Name: "Beef Noodle House", Rating: 4.5, AvgCostMin: 150, AvgCostMax: 250, AvgWaitMin: 10, AvgWaitMax: 20, MealTimeHours: 0.75, Hours: "11:00-21:00", FoodTypes: []string{"Noodles", "Taiwanese"}, Seats: 40, Area: "Hsinchu East", IsOpen: true, Lat: 24.8013, Lng: 120.9716},
		{ID: "b2", Name: "Green Bowl", Rating: 4.3, AvgCostMin: 120, AvgCostMax: 220, AvgWaitMin: 5, AvgWaitMax: 15, MealTimeHours: 0.5, Hours: "10:00-20:00", FoodTypes: []string{"Vegetarian", "Salad"}, Seats: 24, Area: "Hsinchu East", IsOpen: true, Lat: 24.7962, Lng: 120.9967},
		{ID: "b3", Name: "Night Market Dumplings", Rating: 4.1, AvgCostMin: 80, AvgCostMax: 160, AvgWaitMin: 15, AvgWaitMax: 30, MealTimeHours: 0.5, Hours: "17:00-23:30", FoodTypes: []string{"Dumplings", "Street Food"}, Seats: 16, Area: "Hsinchu East", IsOpen: true, Lat: 24.8047, Lng: 120.9689},
		{ID: "b4", Name: "Hot Pot Corner", Rating: 4.6, AvgCostMin: 400, AvgCostMax: 700, AvgWaitMin: 20, AvgWaitMax: 45, MealTimeHours: 1.5, Hours: "11:30-23:00", FoodTypes: []string{"Hot Pot"}, Seats: 80, Area: "Hsinchu East", IsOpen: true, Lat: 24.7991, Lng: 120.9802},
		{ID: "b5", Name: "Bamboo Vegetarian Kitchen", Rating: 4.4, AvgCostMin: 150, AvgCostMax: 300, AvgWaitMin: 10, AvgWaitMax: 20, MealTimeHours: 1, Hours: "11:00-14:00,17:00-20:30", FoodTypes: []string{"Vegetarian", "Taiwanese"}, Seats: 36, Area: "Hsinchu North", IsOpen: true, Lat: 24.8142, Lng: 120.9653},
		{ID: "b6", Name: "Harbor Seafood", Rating: 4.2, AvgCostMin: 500, AvgCostMax: 900, AvgWaitMin: 25, AvgWaitMax: 50, MealTimeHours: 1.5, Hours: "11:00-21:00", FoodTypes: []string{"Seafood"}, Seats: 120, Area: "Hsinchu North", IsOpen: false, Lat: 24.8473, Lng: 120.9271},
		{ID: "b7", Name: "Curry Lab", Rating: 4.0, AvgCostMin: 180, AvgCostMax: 280, AvgWaitMin: 10, AvgWaitMax: 25, MealTimeHours: 0.75, Hours: "11:30-21:00", FoodTypes: []string{"Japanese", "Curry"}, Seats: 30, Area: "Zhubei", IsOpen: true, Lat: 24.8271, Lng: 121.0124},
		{ID: "b8", Name: "Morning Bao", Rating: 4.7, AvgCostMin: 50, AvgCostMax: 120, AvgWaitMin: 5, AvgWaitMax: 20, MealTimeHours: 0.3, Hours: "06:00-12:00", FoodTypes: []string{"Breakfast", "Bao"}, Seats: 12, Area: "Zhubei", IsOpen: true, Lat: 24.8309, Lng: 121.0066},
		{ID: "b9", Name: "Pasta Piazza", Rating: 3.9, AvgCostMin: 250, AvgCostMax: 450, AvgWaitMin: 15, AvgWaitMax: 30, MealTimeHours: 1.25, Hours: "11:30-21:30", FoodTypes: []string{"Italian", "Vegetarian"}, Seats: 50, Area: "Zhubei", IsOpen: true, Lat: 24.8245, Lng: 121.0190},
		{ID: "b10", Name: "Rice Roll Stand", Rating: 4.1, AvgCostMin: 40, AvgCostMax: 90, AvgWaitMin: 5, AvgWaitMax: 10, MealTimeHours: 0.25, Hours: "06:30-13:00", FoodTypes: []string{"Breakfast", "Street Food"}, Seats: 8, Area: "Hsinchu North", IsOpen: true, Lat: 24.8081, Lng: 120.9622},
	}
}
