// README: Trip slot record; merge rules and the derived-date invariant live here.
package trip

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format for all stored dates.
const DateLayout = "2006-01-02"

// Slot field names. The order of SlotPriority drives which question the
// controller asks next; it must stay total and stable so repeated prompts
// are deterministic.
const (
	FieldOrigin        = "origin"
	FieldDestination   = "destination"
	FieldDepartureDate = "departure_date"
	FieldReturnDate    = "return_date"
	FieldDuration      = "duration"
	FieldBudget        = "budget"
	FieldAccommodation = "accommodation"
	FieldInterests     = "interests"
)

var SlotPriority = []string{
	FieldDestination,
	FieldDuration,
	FieldDepartureDate,
	FieldOrigin,
	FieldInterests,
	FieldBudget,
	FieldAccommodation,
}

// RequiredSlots is the default set that must be filled before providers are
// queried. Budget and accommodation only refine the plan when present.
var RequiredSlots = []string{FieldDestination, FieldDuration, FieldDepartureDate, FieldOrigin}

// Context is the mutable slot record for one conversation. Each conversation
// owns exactly one Context; it is never shared across sessions.
type Context struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date"`
	Duration      string `json:"duration"`
	Budget        string `json:"budget"`
	Accommodation string `json:"accommodation"`
	Interests     string `json:"interests"`
}

// Update is a partial mapping from field names to candidate values for one
// turn. Date values must already be normalized before merge.
type Update map[string]string

// Field returns the value of the named slot, or "" for unknown names.
func (c *Context) Field(name string) string {
	switch name {
	case FieldOrigin:
		return c.Origin
	case FieldDestination:
		return c.Destination
	case FieldDepartureDate:
		return c.DepartureDate
	case FieldReturnDate:
		return c.ReturnDate
	case FieldDuration:
		return c.Duration
	case FieldBudget:
		return c.Budget
	case FieldAccommodation:
		return c.Accommodation
	case FieldInterests:
		return c.Interests
	}
	return ""
}

func (c *Context) setField(name, value string) {
	switch name {
	case FieldOrigin:
		c.Origin = value
	case FieldDestination:
		c.Destination = value
	case FieldDepartureDate:
		c.DepartureDate = value
	case FieldReturnDate:
		c.ReturnDate = value
	case FieldDuration:
		c.Duration = value
	case FieldBudget:
		c.Budget = value
	case FieldAccommodation:
		c.Accommodation = value
	case FieldInterests:
		c.Interests = value
	}
}

// IsEmpty reports whether no slot holds a value.
func (c *Context) IsEmpty() bool {
	for _, f := range []string{
		FieldOrigin, FieldDestination, FieldDepartureDate, FieldReturnDate,
		FieldDuration, FieldBudget, FieldAccommodation, FieldInterests,
	} {
		if c.Field(f) != "" {
			return false
		}
	}
	return true
}

// Reset clears every slot.
func (c *Context) Reset() {
	*c = Context{}
}

// Snapshot returns the slots as a plain map for oracle prompts.
func (c *Context) Snapshot() map[string]string {
	return map[string]string{
		FieldOrigin:        c.Origin,
		FieldDestination:   c.Destination,
		FieldDepartureDate: c.DepartureDate,
		FieldReturnDate:    c.ReturnDate,
		FieldDuration:      c.Duration,
		FieldBudget:        c.Budget,
		FieldAccommodation: c.Accommodation,
		FieldInterests:     c.Interests,
	}
}

// Missing returns the required fields still unset, in SlotPriority order.
func (c *Context) Missing(required []string) []string {
	requiredSet := make(map[string]bool, len(required))
	for _, f := range required {
		requiredSet[f] = true
	}
	var missing []string
	for _, f := range SlotPriority {
		if requiredSet[f] && c.Field(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Merge applies an update field-by-field and returns the names of fields
// actually written. Empty values never overwrite existing data, duration must
// be a positive integer, and date fields must already be canonical; invalid values are
// skipped with the original slot left unchanged, so a bad field cannot
// corrupt others committed in the same turn.
func (c *Context) Merge(u Update) []string {
	var applied []string
	for _, f := range []string{
		FieldOrigin, FieldDestination, FieldDepartureDate, FieldReturnDate,
		FieldDuration, FieldBudget, FieldAccommodation, FieldInterests,
	} {
		v, ok := u[f]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		switch f {
		case FieldDuration:
			if n, err := strconv.Atoi(v); err != nil || n <= 0 {
				continue
			}
		case FieldDepartureDate, FieldReturnDate:
			if _, err := time.Parse(DateLayout, v); err != nil {
				continue
			}
		}
		c.setField(f, v)
		applied = append(applied, f)
	}
	c.DeriveDates()
	return applied
}

// DeriveDates fills in the third of {departure_date, duration, return_date}
// whenever the other two are known. Calendar arithmetic is UTC with no
// timezone.
func (c *Context) DeriveDates() {
	dep, depErr := time.Parse(DateLayout, c.DepartureDate)
	ret, retErr := time.Parse(DateLayout, c.ReturnDate)
	days := 0
	if c.Duration != "" {
		days, _ = strconv.Atoi(c.Duration)
	}

	switch {
	case depErr == nil && days > 0 && c.ReturnDate == "":
		c.ReturnDate = dep.AddDate(0, 0, days).Format(DateLayout)
	case depErr == nil && retErr == nil && c.Duration == "":
		if d := int(ret.Sub(dep).Hours() / 24); d > 0 {
			c.Duration = strconv.Itoa(d)
		}
	case retErr == nil && days > 0 && c.DepartureDate == "":
		c.DepartureDate = ret.AddDate(0, 0, -days).Format(DateLayout)
	}
}
