// Package categorizer assigns spending categories to parsed transactions using a
// merchant registry, VPA handles, amount heuristics and message keywords.
package categorizer

import (
	"sort"
	"strings"

	"smsledger/internal/models"
)

// seedMerchants is the compiled-in merchant knowledge. Keys are uppercase.
var seedMerchants = map[string]string{
	// Food & Dining
	"ZOMATO": models.CatFood, "SWIGGY": models.CatFood, "DOMINOS": models.CatFood,
	"MCDONALDS": models.CatFood, "KFC": models.CatFood, "PIZZA HUT": models.CatFood,
	"STARBUCKS": models.CatFood, "CAFE COFFEE DAY": models.CatFood, "BURGER KING": models.CatFood,
	"HALDIRAM": models.CatFood, "EATSURE": models.CatFood, "CHAAYOS": models.CatFood,

	// Groceries
	"BIGBASKET": models.CatGroceries, "BLINKIT": models.CatGroceries, "ZEPTO": models.CatGroceries,
	"DMART": models.CatGroceries, "GROFERS": models.CatGroceries, "JIOMART": models.CatGroceries,
	"BIG BAZAAR": models.CatGroceries, "NATURES BASKET": models.CatGroceries, "INSTAMART": models.CatGroceries,

	// Shopping
	"AMAZON": models.CatShopping, "FLIPKART": models.CatShopping, "MYNTRA": models.CatShopping,
	"AJIO": models.CatShopping, "NYKAA": models.CatShopping, "MEESHO": models.CatShopping,
	"RELIANCE DIGITAL": models.CatShopping, "CROMA": models.CatShopping, "DECATHLON": models.CatShopping,
	"TATA CLIQ": models.CatShopping, "LIFESTYLE": models.CatShopping,

	// Transportation
	"UBER": models.CatTransport, "OLACABS": models.CatTransport, "OLA CABS": models.CatTransport,
	"RAPIDO": models.CatTransport, "METRO RAIL": models.CatTransport, "DMRC": models.CatTransport,
	"FASTAG": models.CatTransport, "NAMMA YATRI": models.CatTransport, "BLUSMART": models.CatTransport,

	// Travel
	"IRCTC": models.CatTravel, "MAKEMYTRIP": models.CatTravel, "GOIBIBO": models.CatTravel,
	"CLEARTRIP": models.CatTravel, "INDIGO": models.CatTravel, "AIR INDIA": models.CatTravel,
	"REDBUS": models.CatTravel, "OYO": models.CatTravel, "AIRBNB": models.CatTravel,

	// Entertainment
	"NETFLIX": models.CatEntertainment, "SPOTIFY": models.CatEntertainment, "HOTSTAR": models.CatEntertainment,
	"PRIME VIDEO": models.CatEntertainment, "BOOKMYSHOW": models.CatEntertainment, "PVR": models.CatEntertainment,
	"INOX": models.CatEntertainment, "YOUTUBE PREMIUM": models.CatEntertainment, "SONYLIV": models.CatEntertainment,

	// Utilities
	"AIRTEL": models.CatUtilities, "JIO": models.CatUtilities, "VODAFONE": models.CatUtilities,
	"BSNL": models.CatUtilities, "TATA POWER": models.CatUtilities, "BESCOM": models.CatUtilities,
	"ADANI ELECTRICITY": models.CatUtilities, "MAHANAGAR GAS": models.CatUtilities, "ACT FIBERNET": models.CatUtilities,

	// Fuel
	"INDIAN OIL": models.CatFuel, "IOCL": models.CatFuel, "HPCL": models.CatFuel,
	"BPCL": models.CatFuel, "BHARAT PETROLEUM": models.CatFuel, "HP PETROL": models.CatFuel,
	"SHELL": models.CatFuel, "NAYARA": models.CatFuel,

	// Health & Fitness
	"APOLLO": models.CatHealth, "PHARMEASY": models.CatHealth, "NETMEDS": models.CatHealth,
	"1MG": models.CatHealth, "CULTFIT": models.CatHealth, "CULT.FIT": models.CatHealth,
	"PRACTO": models.CatHealth, "MEDPLUS": models.CatHealth,

	// Education
	"BYJUS": models.CatEducation, "UNACADEMY": models.CatEducation, "UDEMY": models.CatEducation,
	"COURSERA": models.CatEducation, "VEDANTU": models.CatEducation,
}

// minContainedLen is the shortest name that may match as a substring of a keyword
const minContainedLen = 3

// MerchantLookup resolves a merchant name to a category
type MerchantLookup interface {
	Lookup(name string) (string, bool)
}

// Registry is an immutable keyword to category table
type Registry struct {
	exact map[string]string
	keys  []string // longest first, then alphabetical
}

// NewRegistry creates a registry from the seed merchants plus extra entries.
// Extra entries override seed entries with the same keyword.
func NewRegistry(extra map[string]string) *Registry {
	entries := make(map[string]string, len(seedMerchants)+len(extra))
	for k, v := range seedMerchants {
		entries[k] = v
	}
	for k, v := range extra {
		if k = Normalize(k); k != "" && v != "" {
			entries[k] = v
		}
	}
	return newRegistry(entries)
}

func newRegistry(entries map[string]string) *Registry {
	r := &Registry{exact: entries, keys: make([]string, 0, len(entries))}
	for k := range entries {
		r.keys = append(r.keys, k)
	}
	sortKeywords(r.keys)
	return r
}

// Lookup returns the category for name: exact match first, then the first
// keyword that contains or is contained in the name.
func (r *Registry) Lookup(name string) (string, bool) {
	return lookup(r.exact, r.keys, name)
}

// Len returns the number of keywords in the registry
func (r *Registry) Len() int {
	return len(r.keys)
}

// Normalize uppercases and collapses whitespace
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(name)), " ")
}

func lookup(exact map[string]string, keys []string, name string) (string, bool) {
	n := Normalize(name)
	if n == "" {
		return "", false
	}
	if cat, ok := exact[n]; ok {
		return cat, true
	}
	for _, k := range keys {
		if strings.Contains(n, k) || (len(n) >= minContainedLen && strings.Contains(k, n)) {
			return exact[k], true
		}
	}
	return "", false
}

func sortKeywords(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
}
