// README: Flight offer summaries returned by the Amadeus search.
package flights

// Offer is a simplified flight-offer summary for presentation.
type Offer struct {
	Airline         string `json:"airline"`
	Price           string `json:"price"`
	Currency        string `json:"currency"`
	Duration        string `json:"duration"`
	DepartsAt       string `json:"departs_at"`
	DepartsFrom     string `json:"departs_from"`
	ArrivesAt       string `json:"arrives_at"`
	ArrivesTo       string `json:"arrives_to"`
	Stops           int    `json:"stops"`
	BookingLink     string `json:"booking_link,omitempty"`
	OriginCode      string `json:"origin_code"`
	DestinationCode string `json:"destination_code"`
}
