package entity

// TransportOption is one candidate way of travelling between an ordered
// city pair, as returned by the transport lookup. At most one option per
// pair is flagged Recommended.
type TransportOption struct {
	Mode            TransportMode `json:"mode" bson:"mode"`
	DurationMinutes int           `json:"durationMinutes" bson:"durationMinutes"`
	DurationLabel   string        `json:"durationLabel" bson:"durationLabel"`
	Operator        string        `json:"operator,omitempty" bson:"operator,omitempty"`
	PriceRange      string        `json:"priceRange,omitempty" bson:"priceRange,omitempty"`
	Recommended     bool          `json:"recommended" bson:"recommended"`
}

// RouteSegment is one hop of a pre-selected multi-leg route for the
// initial outbound journey from home base.
type RouteSegment struct {
	Mode          TransportMode `json:"mode" bson:"mode"`
	From          string        `json:"from" bson:"from"`
	To            string        `json:"to" bson:"to"`
	Operator      string        `json:"operator,omitempty" bson:"operator,omitempty"`
	DurationLabel string        `json:"durationLabel,omitempty" bson:"durationLabel,omitempty"`
}
