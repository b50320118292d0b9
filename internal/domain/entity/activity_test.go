package entity

import (
	"errors"
	"testing"
)

func TestNewTransportActivityRequiresLegDetails(t *testing.T) {
	activity, err := NewTransportActivity(ActivityTrain, "Train to Porto", TransportDetails{
		From: "Lisbon", To: "Porto", Operator: "CP Alfa Pendular",
	})
	if err != nil {
		t.Fatalf("valid transport rejected: %v", err)
	}
	if activity.ID == "" {
		t.Fatal("expected a generated id")
	}
	if !activity.IsTransport() {
		t.Fatal("train activity must report as transport")
	}
	if activity.Transport == nil || activity.Transport.To != "Porto" {
		t.Fatalf("transport details not attached: %+v", activity.Transport)
	}

	_, err = NewTransportActivity(ActivityFlight, "Flight", TransportDetails{From: "Lisbon"})
	if !errors.Is(err, ErrMissingTransportDetails) {
		t.Fatalf("expected ErrMissingTransportDetails for empty To, got %v", err)
	}
	_, err = NewTransportActivity(ActivityAttraction, "Belem Tower", TransportDetails{From: "a", To: "b"})
	if !errors.Is(err, ErrUnexpectedTransportDetails) {
		t.Fatalf("expected ErrUnexpectedTransportDetails for a stay type, got %v", err)
	}
	_, err = NewTransportActivity(ActivityType("rocket"), "Rocket", TransportDetails{From: "a", To: "b"})
	if !errors.Is(err, ErrUnknownActivityType) {
		t.Fatalf("expected ErrUnknownActivityType, got %v", err)
	}
}

func TestNewStayActivityRejectsTransportTypes(t *testing.T) {
	activity, err := NewStayActivity(ActivityCafe, "Pasteis de Belem", "Custard tarts", []string{"food"})
	if err != nil {
		t.Fatalf("valid stay rejected: %v", err)
	}
	if activity.IsTransport() {
		t.Fatal("cafe activity must not report as transport")
	}
	if activity.Transport != nil {
		t.Fatal("stay activity must not carry transport details")
	}

	if _, err := NewStayActivity(ActivityFlight, "Flight", "", nil); !errors.Is(err, ErrMissingTransportDetails) {
		t.Fatalf("expected ErrMissingTransportDetails for a transport type, got %v", err)
	}
	if _, err := NewStayActivity(ActivityType("spa"), "Spa", "", nil); !errors.Is(err, ErrUnknownActivityType) {
		t.Fatalf("expected ErrUnknownActivityType, got %v", err)
	}
}

func TestAllocationHelpers(t *testing.T) {
	allocations := []CityAllocation{
		{City: TransitCity, Nights: 1, StartDay: 1, EndDay: 1},
		{City: "Lisbon", Nights: 3, StartDay: 2, EndDay: 4},
		{City: "Porto", Nights: 2, StartDay: 5, EndDay: 7},
	}
	if !allocations[0].IsTransit() || allocations[1].IsTransit() {
		t.Fatal("transit detection broken")
	}
	if got := TotalDaysOf(allocations); got != 7 {
		t.Fatalf("TotalDaysOf = %d, expected 7", got)
	}
	if got := SumNights(allocations); got != 6 {
		t.Fatalf("SumNights = %d, expected 6", got)
	}
	cities := StayCities(allocations)
	if len(cities) != 2 || cities[0] != "Lisbon" || cities[1] != "Porto" {
		t.Fatalf("StayCities = %v", cities)
	}
}
