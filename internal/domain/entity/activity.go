package entity

import (
	"errors"

	"github.com/google/uuid"
)

// ActivityType is the closed discriminant of the Activity variant.
type ActivityType string

const (
	ActivityFlight     ActivityType = "flight"
	ActivityTrain      ActivityType = "train"
	ActivityBus        ActivityType = "bus"
	ActivityDrive      ActivityType = "drive"
	ActivityFerry      ActivityType = "ferry"
	ActivityTransit    ActivityType = "transit"
	ActivityAttraction ActivityType = "attraction"
	ActivityRestaurant ActivityType = "restaurant"
	ActivityCafe       ActivityType = "cafe"
	ActivityNightlife  ActivityType = "nightlife"
	ActivityShopping   ActivityType = "shopping"
	ActivityCulture    ActivityType = "culture"
	ActivityNature     ActivityType = "nature"
)

var (
	ErrUnknownActivityType        = errors.New("unknown activity type")
	ErrMissingTransportDetails    = errors.New("transport activity requires transport details")
	ErrUnexpectedTransportDetails = errors.New("non-transport activity cannot carry transport details")
)

var transportTypes = map[ActivityType]bool{
	ActivityFlight:  true,
	ActivityTrain:   true,
	ActivityBus:     true,
	ActivityDrive:   true,
	ActivityFerry:   true,
	ActivityTransit: true,
}

var stayTypes = map[ActivityType]bool{
	ActivityAttraction: true,
	ActivityRestaurant: true,
	ActivityCafe:       true,
	ActivityNightlife:  true,
	ActivityShopping:   true,
	ActivityCulture:    true,
	ActivityNature:     true,
}

// IsTransport reports whether the type denotes a travel leg activity.
func (t ActivityType) IsTransport() bool {
	return transportTypes[t]
}

// TransportDetails carries the leg-specific fields required on every
// transport activity.
type TransportDetails struct {
	From          string `json:"from" bson:"from"`
	To            string `json:"to" bson:"to"`
	Operator      string `json:"operator,omitempty" bson:"operator,omitempty"`
	DepartureTime string `json:"departureTime,omitempty" bson:"departureTime,omitempty"`
	ArrivalTime   string `json:"arrivalTime,omitempty" bson:"arrivalTime,omitempty"`
	BookingRef    string `json:"bookingRef,omitempty" bson:"bookingRef,omitempty"`
}

// Attachment is a user-uploaded document or link pinned to an activity.
type Attachment struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
	URL  string `json:"url" bson:"url"`
}

// Activity is a tagged variant: transport types require Transport to be
// set, stay types forbid it. Construct through NewTransportActivity or
// NewStayActivity so the variant rules hold everywhere downstream.
type Activity struct {
	ID              string            `json:"id" bson:"id"`
	Type            ActivityType      `json:"type" bson:"type"`
	Name            string            `json:"name" bson:"name"`
	Description     string            `json:"description,omitempty" bson:"description,omitempty"`
	SuggestedTime   string            `json:"suggestedTime,omitempty" bson:"suggestedTime,omitempty"`
	DurationMinutes int               `json:"durationMinutes,omitempty" bson:"durationMinutes,omitempty"`
	Tags            []string          `json:"tags,omitempty" bson:"tags,omitempty"`
	UserCost        float64           `json:"userCost,omitempty" bson:"userCost,omitempty"`
	Attachments     []Attachment      `json:"attachments,omitempty" bson:"attachments,omitempty"`
	ImageURL        string            `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Transport       *TransportDetails `json:"transportDetails,omitempty" bson:"transportDetails,omitempty"`
}

// IsTransport reports whether the activity is a travel leg.
func (a Activity) IsTransport() bool {
	return a.Type.IsTransport()
}

// NewTransportActivity builds a transport-typed activity with its
// mandatory leg details.
func NewTransportActivity(t ActivityType, name string, details TransportDetails) (Activity, error) {
	if !t.IsTransport() {
		if stayTypes[t] {
			return Activity{}, ErrUnexpectedTransportDetails
		}
		return Activity{}, ErrUnknownActivityType
	}
	if details.From == "" || details.To == "" {
		return Activity{}, ErrMissingTransportDetails
	}
	return Activity{
		ID:        uuid.NewString(),
		Type:      t,
		Name:      name,
		Transport: &details,
	}, nil
}

// NewStayActivity builds a non-transport activity.
func NewStayActivity(t ActivityType, name, description string, tags []string) (Activity, error) {
	if t.IsTransport() {
		return Activity{}, ErrMissingTransportDetails
	}
	if !stayTypes[t] {
		return Activity{}, ErrUnknownActivityType
	}
	return Activity{
		ID:          uuid.NewString(),
		Type:        t,
		Name:        name,
		Description: description,
		Tags:        tags,
	}, nil
}
