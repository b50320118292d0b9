package main

import (
	"fmt"
	"log"
	"os"

	storeRepo "tripline-service/internal/interface/repository"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeds the city reference and transport option tables. Run once against
// a fresh database:
//
//	go run ./cmd/utils
var cityRows = []storeRepo.CityDefaultRow{
	{CityName: "London", RecommendedNights: 3, AirportCode: "LHR"},
	{CityName: "Paris", RecommendedNights: 3, AirportCode: "CDG"},
	{CityName: "Amsterdam", RecommendedNights: 2, AirportCode: "AMS"},
	{CityName: "Berlin", RecommendedNights: 3, AirportCode: "BER"},
	{CityName: "Prague", RecommendedNights: 2, AirportCode: "PRG"},
	{CityName: "Vienna", RecommendedNights: 2, AirportCode: "VIE"},
	{CityName: "Budapest", RecommendedNights: 2, AirportCode: "BUD"},
	{CityName: "Rome", RecommendedNights: 3, AirportCode: "FCO"},
	{CityName: "Florence", RecommendedNights: 2, AirportCode: "FLR"},
	{CityName: "Venice", RecommendedNights: 2, AirportCode: "VCE"},
	{CityName: "Milan", RecommendedNights: 2, AirportCode: "MXP"},
	{CityName: "Barcelona", RecommendedNights: 3, AirportCode: "BCN"},
	{CityName: "Madrid", RecommendedNights: 2, AirportCode: "MAD"},
	{CityName: "Lisbon", RecommendedNights: 3, AirportCode: "LIS"},
	{CityName: "Porto", RecommendedNights: 2, AirportCode: "OPO"},
	{CityName: "Athens", RecommendedNights: 2, AirportCode: "ATH"},
	{CityName: "Istanbul", RecommendedNights: 3, AirportCode: "IST"},
	{CityName: "Tokyo", RecommendedNights: 4, AirportCode: "HND"},
	{CityName: "Kyoto", RecommendedNights: 3, AirportCode: "KIX"},
	{CityName: "Osaka", RecommendedNights: 2, AirportCode: "KIX"},
	{CityName: "New York", RecommendedNights: 4, AirportCode: "JFK"},
	{CityName: "Bangkok", RecommendedNights: 3, AirportCode: "BKK"},
	{CityName: "Singapore", RecommendedNights: 2, AirportCode: "SIN"},
}

var transportRows = []storeRepo.TransportOptionRow{
	{FromCity: "Lisbon", ToCity: "Porto", Mode: "train", DurationMinutes: 175, DurationLabel: "2h 55m", Operator: "CP Alfa Pendular", PriceRange: "€25-45", Recommended: true},
	{FromCity: "Lisbon", ToCity: "Porto", Mode: "bus", DurationMinutes: 210, DurationLabel: "3h 30m", Operator: "FlixBus", PriceRange: "€10-20"},
	{FromCity: "Lisbon", ToCity: "Porto", Mode: "flight", DurationMinutes: 55, DurationLabel: "55m", Operator: "TAP", PriceRange: "€40-90"},
	{FromCity: "Paris", ToCity: "Amsterdam", Mode: "train", DurationMinutes: 200, DurationLabel: "3h 20m", Operator: "Eurostar", PriceRange: "€45-120", Recommended: true},
	{FromCity: "Paris", ToCity: "Amsterdam", Mode: "flight", DurationMinutes: 80, DurationLabel: "1h 20m", Operator: "KLM", PriceRange: "€70-180"},
	{FromCity: "Rome", ToCity: "Florence", Mode: "train", DurationMinutes: 95, DurationLabel: "1h 35m", Operator: "Frecciarossa", PriceRange: "€20-55", Recommended: true},
	{FromCity: "Florence", ToCity: "Venice", Mode: "train", DurationMinutes: 125, DurationLabel: "2h 5m", Operator: "Frecciarossa", PriceRange: "€25-60", Recommended: true},
	{FromCity: "Barcelona", ToCity: "Madrid", Mode: "train", DurationMinutes: 150, DurationLabel: "2h 30m", Operator: "AVE", PriceRange: "€35-90", Recommended: true},
	{FromCity: "Tokyo", ToCity: "Kyoto", Mode: "train", DurationMinutes: 135, DurationLabel: "2h 15m", Operator: "Nozomi Shinkansen", PriceRange: "¥13000-14500", Recommended: true},
	{FromCity: "Kyoto", ToCity: "Osaka", Mode: "train", DurationMinutes: 30, DurationLabel: "30m", Operator: "JR Special Rapid", PriceRange: "¥560-1000", Recommended: true},
	{FromCity: "Athens", ToCity: "Istanbul", Mode: "flight", DurationMinutes: 85, DurationLabel: "1h 25m", Operator: "Aegean", PriceRange: "€80-200", Recommended: true},
	{FromCity: "Bangkok", ToCity: "Singapore", Mode: "flight", DurationMinutes: 145, DurationLabel: "2h 25m", Operator: "Singapore Airlines", PriceRange: "$90-250", Recommended: true},
}

func main() {
	godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = "host=localhost user=tripline dbname=tripline port=5432"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}

	if err := db.AutoMigrate(&storeRepo.CityDefaultRow{}, &storeRepo.TransportOptionRow{}); err != nil {
		log.Fatalf("migrate reference tables: %v", err)
	}

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&cityRows)
	if result.Error != nil {
		log.Fatalf("seed city defaults: %v", result.Error)
	}
	fmt.Printf("seeded %d city defaults\n", result.RowsAffected)

	result = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&transportRows)
	if result.Error != nil {
		log.Fatalf("seed transport options: %v", result.Error)
	}
	fmt.Printf("seeded %d transport options\n", result.RowsAffected)
}
