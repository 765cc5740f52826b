// README: Seed lookup tables for special destinations, nearby airports, and hubs.
package routes

import "strings"

// specialDestinations maps curated destinations without an airport of their
// own to plausible gateway airport codes. Seed data, replaceable via Config.
var specialDestinations = map[string][]string{
	"yellowstone":               {"BZN", "JAC", "COD"},
	"yellowstone national park": {"BZN", "JAC", "COD"},
	"yosemite":                  {"FAT", "SJC"},
	"yosemite national park":    {"FAT", "SJC"},
	"grand canyon":              {"FLG", "LAS", "PHX"},
	"banff":                     {"YYC"},
	"lake tahoe":                {"RNO", "SMF"},
	"serengeti":                 {"JRO", "SEU"},
	"machu picchu":              {"CUZ"},
	"big sur":                   {"MRY", "SJC"},
}

// nearbyAirports maps an airport or metro code to alternates in the same
// area. Seed data, replaceable via Config.
var nearbyAirports = map[string][]string{
	"JFK": {"EWR", "LGA", "HPN"},
	"EWR": {"JFK", "LGA"},
	"LGA": {"JFK", "EWR"},
	"NYC": {"JFK", "EWR", "LGA"},
	"LHR": {"LGW", "STN", "LTN"},
	"LGW": {"LHR", "STN"},
	"LON": {"LHR", "LGW", "STN"},
	"NRT": {"HND"},
	"HND": {"NRT"},
	"TYO": {"NRT", "HND"},
	"CDG": {"ORY", "BVA"},
	"PAR": {"CDG", "ORY"},
	"SFO": {"OAK", "SJC"},
	"OAK": {"SFO", "SJC"},
	"LAX": {"BUR", "SNA", "ONT", "LGB"},
	"BOS": {"PVD", "MHT"},
	"MIL": {"MXP", "LIN", "BGY"},
	"ROM": {"FCO", "CIA"},
	"FCO": {"CIA"},
	"BER": {"LEJ", "DRS"},
	"CHI": {"ORD", "MDW"},
	"ORD": {"MDW"},
	"WAS": {"IAD", "DCA", "BWI"},
}

// hubAirports are major connecting hubs tried for two-leg itineraries,
// in preference order.
var hubAirports = []string{
	"JFK", "LHR", "CDG", "FRA", "AMS", "IST", "DXB", "DOH", "SIN", "HND", "ORD", "ATL",
}

// normalizeDestName canonicalizes a destination for special-table lookup.
func normalizeDestName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
