// README: Composes provider outputs into the turn's reply payload and rendered text.
package plan

import (
	"fmt"
	"strings"

	"atlas/internal/flights"
	"atlas/internal/hotels"
	"atlas/internal/routes"
	"atlas/internal/weather"
)

// ReplyKind discriminates what a TurnReply carries.
type ReplyKind string

const (
	// KindQuestion is a follow-up question; the plan payload is absent.
	KindQuestion ReplyKind = "question"
	// KindNotice is an acknowledgment or status message outside the
	// gathering flow (reset confirmations, booking offers, apologies).
	KindNotice ReplyKind = "notice"
	// KindPlan carries an assembled (possibly partial) travel plan.
	KindPlan ReplyKind = "plan"
)

// TurnReply is the single upward-facing result of one turn.
type TurnReply struct {
	Kind    ReplyKind `json:"kind"`
	Message string    `json:"message"`
	Plan    *Payload  `json:"plan,omitempty"`
}

// Question builds a follow-up question reply.
func Question(msg string) *TurnReply {
	return &TurnReply{Kind: KindQuestion, Message: msg}
}

// Notice builds an acknowledgment reply.
func Notice(msg string) *TurnReply {
	return &TurnReply{Kind: KindNotice, Message: msg}
}

// Payload is the structured plan for one trip.
type Payload struct {
	Destination      string             `json:"destination"`
	Origin           string             `json:"origin"`
	DepartureDate    string             `json:"departure_date"`
	ReturnDate       string             `json:"return_date"`
	Itinerary        string             `json:"itinerary,omitempty"`
	DepartureWeather *weather.Summary   `json:"departure_weather,omitempty"`
	ReturnWeather    *weather.Summary   `json:"return_weather,omitempty"`
	Flights          []flights.Offer    `json:"flights"`
	Alternatives     []routes.Candidate `json:"alternatives,omitempty"`
	Hotels           []hotels.Offer     `json:"hotels"`
	// Notices carries user-visible "could not fetch X" messages for
	// providers that failed this turn.
	Notices []string `json:"notices,omitempty"`
	// HotelsFailed distinguishes a failed hotel lookup from a genuinely
	// empty result; only the latter renders the "none found" line.
	HotelsFailed bool `json:"-"`
}

// Assembler renders plan payloads into chat text.
type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Compose renders the payload into a reply. Empty flights with no
// alternatives always produce an explicit explanation, never a silent gap.
func (a *Assembler) Compose(p *Payload) *TurnReply {
	var b strings.Builder

	b.WriteString("Here's your travel plan:\n\n")

	if p.Itinerary != "" {
		b.WriteString("🗓️ Itinerary\n\n")
		b.WriteString(strings.TrimSpace(p.Itinerary))
		b.WriteString("\n\n")
	}

	if p.DepartureWeather != nil || p.ReturnWeather != nil {
		b.WriteString("🌤️ Weather Forecast\n\n")
		if p.DepartureWeather != nil {
			b.WriteString(p.DepartureWeather.String() + "\n")
		}
		if p.ReturnWeather != nil {
			b.WriteString(p.ReturnWeather.String() + "\n")
		}
		b.WriteString("\n")
	}

	a.writeFlights(&b, p)
	a.writeHotels(&b, p)

	for _, n := range p.Notices {
		b.WriteString("❌ " + n + "\n")
	}

	return &TurnReply{Kind: KindPlan, Message: strings.TrimSpace(b.String()), Plan: p}
}

func (a *Assembler) writeFlights(b *strings.Builder, p *Payload) {
	if len(p.Flights) > 0 {
		b.WriteString("✈️ Flight Options\n\n")
		for i, f := range p.Flights {
			fmt.Fprintf(b, "%d. %s\n", i+1, formatOffer(f))
		}
		b.WriteString("\n")
		return
	}

	fmt.Fprintf(b, "❌ No direct flights found from %s to %s on %s.\n\n", p.Origin, p.Destination, p.DepartureDate)

	if len(p.Alternatives) == 0 {
		b.WriteString("No alternative routes were found either; you may want to try different dates.\n\n")
		return
	}

	b.WriteString("🔁 Alternative Routes\n\n")
	for i, c := range p.Alternatives {
		fmt.Fprintf(b, "%d. %s\n", i+1, formatCandidate(c))
	}
	b.WriteString("\n")
}

func (a *Assembler) writeHotels(b *strings.Builder, p *Payload) {
	if len(p.Hotels) == 0 {
		if !p.HotelsFailed && p.DepartureDate != "" {
			b.WriteString("❌ No hotels found for your dates.\n\n")
		}
		return
	}
	b.WriteString("🏨 Hotel Options\n\n")
	for i, h := range p.Hotels {
		fmt.Fprintf(b, "%d. %s (%d stars) - from %.0f %s\n   Link: %s\n", i+1, h.Name, h.Stars, h.PriceFrom, h.Currency, h.BookingLink)
	}
	b.WriteString("\n")
}

func formatOffer(f flights.Offer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s – $%s", f.Airline, f.Price)
	if f.Duration != "" {
		fmt.Fprintf(&b, "\n   🕐 Duration: %s", f.Duration)
	}
	fmt.Fprintf(&b, "\n   🛫 Departs: %s from %s\n   🛬 Arrives: %s at %s", f.DepartsAt, f.DepartsFrom, f.ArrivesAt, f.ArrivesTo)
	if f.BookingLink != "" {
		fmt.Fprintf(&b, "\n   🔗 [Book here](%s)", f.BookingLink)
	}
	return b.String()
}

func formatCandidate(c routes.Candidate) string {
	var b strings.Builder
	switch c.Kind {
	case routes.KindHubConnection:
		fmt.Fprintf(&b, "%s → %s → %s (connection)", c.OriginCode, c.HubCode, c.DestinationCode)
	default:
		fmt.Fprintf(&b, "%s → %s", c.OriginCode, c.DestinationCode)
	}
	if c.Rationale != "" {
		fmt.Fprintf(&b, " — %s", c.Rationale)
	}
	if c.GroundTransport != "" {
		fmt.Fprintf(&b, "\n   🚗 %s", c.GroundTransport)
	}
	for _, leg := range c.Legs {
		if len(leg.Offers) == 0 {
			continue
		}
		best := leg.Offers[0]
		fmt.Fprintf(&b, "\n   ✈️ %s→%s: %s – $%s", leg.OriginCode, leg.DestinationCode, best.Airline, best.Price)
	}
	return b.String()
}
