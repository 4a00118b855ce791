package dictionary

import (
	"github.com/osmquery/overpass-gen/internal/overpass"
)

func tag(key, value string) overpass.Tag {
	return overpass.Tag{Key: key, Value: value}
}

// Default returns the built-in dictionary covering the common feature and
// modifier phrases. Registration order matters: it is the tiebreaker when
// two phrases of equal length match the same prompt.
func Default() *Dictionary {
	features := []Entry{
		// Food and drink
		{Phrase: "cafe", Tags: []overpass.Tag{tag("amenity", "cafe")}},
		{Phrase: "coffee shop", Tags: []overpass.Tag{tag("amenity", "cafe"), tag("shop", "coffee")}},
		{Phrase: "restaurant", Tags: []overpass.Tag{tag("amenity", "restaurant")}},
		{Phrase: "fast food", Tags: []overpass.Tag{tag("amenity", "fast_food")}},
		{Phrase: "bar", Tags: []overpass.Tag{tag("amenity", "bar")}},
		{Phrase: "pub", Tags: []overpass.Tag{tag("amenity", "pub")}},
		{Phrase: "bakery", Tags: []overpass.Tag{tag("shop", "bakery")}},
		{Phrase: "ice cream", Tags: []overpass.Tag{tag("amenity", "ice_cream")}},

		// Shops
		{Phrase: "supermarket", Tags: []overpass.Tag{tag("shop", "supermarket")}},
		{Phrase: "convenience store", Tags: []overpass.Tag{tag("shop", "convenience")}},
		{Phrase: "butcher", Tags: []overpass.Tag{tag("shop", "butcher")}},
		{Phrase: "clothes shop", Tags: []overpass.Tag{tag("shop", "clothes")}},
		{Phrase: "hairdresser", Tags: []overpass.Tag{tag("shop", "hairdresser")}},
		{Phrase: "bookshop", Tags: []overpass.Tag{tag("shop", "books")}},
		{Phrase: "bike shop", Tags: []overpass.Tag{tag("shop", "bicycle")}},
		{Phrase: "marketplace", Tags: []overpass.Tag{tag("amenity", "marketplace")}},

		// Health
		{Phrase: "pharmacy", Tags: []overpass.Tag{tag("amenity", "pharmacy")}},
		{Phrase: "hospital", Tags: []overpass.Tag{tag("amenity", "hospital")}},
		{Phrase: "clinic", Tags: []overpass.Tag{tag("amenity", "clinic")}},
		{Phrase: "dentist", Tags: []overpass.Tag{tag("amenity", "dentist")}},
		{Phrase: "doctor", Tags: []overpass.Tag{tag("amenity", "doctors")}},
		{Phrase: "veterinary", Tags: []overpass.Tag{tag("amenity", "veterinary")}},

		// Education and culture
		{Phrase: "school", Tags: []overpass.Tag{tag("amenity", "school")}},
		{Phrase: "university", Tags: []overpass.Tag{tag("amenity", "university")}},
		{Phrase: "kindergarten", Tags: []overpass.Tag{tag("amenity", "kindergarten")}},
		{Phrase: "library", Tags: []overpass.Tag{tag("amenity", "library")}},
		{Phrase: "museum", Tags: []overpass.Tag{tag("tourism", "museum")}},
		{Phrase: "cinema", Tags: []overpass.Tag{tag("amenity", "cinema")}},
		{Phrase: "theatre", Tags: []overpass.Tag{tag("amenity", "theatre")}},
		{Phrase: "place of worship", Tags: []overpass.Tag{tag("amenity", "place_of_worship")}},

		// Transport
		{Phrase: "bicycle parking", Tags: []overpass.Tag{tag("amenity", "bicycle_parking")}},
		{Phrase: "parking", Tags: []overpass.Tag{tag("amenity", "parking")}},
		{Phrase: "charging station", Tags: []overpass.Tag{tag("amenity", "charging_station")}},
		{Phrase: "fuel station", Tags: []overpass.Tag{tag("amenity", "fuel")}},
		{Phrase: "gas station", Tags: []overpass.Tag{tag("amenity", "fuel")}},
		{Phrase: "bus stop", Tags: []overpass.Tag{tag("highway", "bus_stop")}},
		{Phrase: "train station", Tags: []overpass.Tag{tag("railway", "station")}},
		{Phrase: "subway station", Tags: []overpass.Tag{tag("railway", "station"), tag("station", "subway")}},
		{Phrase: "bicycle rental", Tags: []overpass.Tag{tag("amenity", "bicycle_rental")}},
		{Phrase: "taxi", Tags: []overpass.Tag{tag("amenity", "taxi")}},

		// Leisure and tourism
		{Phrase: "park", Tags: []overpass.Tag{tag("leisure", "park")}},
		{Phrase: "playground", Tags: []overpass.Tag{tag("leisure", "playground")}},
		{Phrase: "sports centre", Tags: []overpass.Tag{tag("leisure", "sports_centre")}},
		{Phrase: "swimming pool", Tags: []overpass.Tag{tag("leisure", "swimming_pool")}},
		{Phrase: "hotel", Tags: []overpass.Tag{tag("tourism", "hotel")}},
		{Phrase: "hostel", Tags: []overpass.Tag{tag("tourism", "hostel")}},
		{Phrase: "campsite", Tags: []overpass.Tag{tag("tourism", "camp_site")}},
		{Phrase: "viewpoint", Tags: []overpass.Tag{tag("tourism", "viewpoint")}},
		{Phrase: "attraction", Tags: []overpass.Tag{tag("tourism", "attraction")}},

		// Services and infrastructure
		{Phrase: "bank", Tags: []overpass.Tag{tag("amenity", "bank")}},
		{Phrase: "atm", Tags: []overpass.Tag{tag("amenity", "atm")}},
		{Phrase: "post office", Tags: []overpass.Tag{tag("amenity", "post_office")}},
		{Phrase: "police", Tags: []overpass.Tag{tag("amenity", "police")}},
		{Phrase: "fire station", Tags: []overpass.Tag{tag("amenity", "fire_station")}},
		{Phrase: "toilet", Tags: []overpass.Tag{tag("amenity", "toilets")}},
		{Phrase: "drinking water", Tags: []overpass.Tag{tag("amenity", "drinking_water")}},
		{Phrase: "bench", Tags: []overpass.Tag{tag("amenity", "bench")}},
		{Phrase: "waste basket", Tags: []overpass.Tag{tag("amenity", "waste_basket")}},
		{Phrase: "recycling", Tags: []overpass.Tag{tag("amenity", "recycling")}},
	}

	modifiers := []Entry{
		{Phrase: "with outdoor seating", Tags: []overpass.Tag{tag("outdoor_seating", "yes")}},
		{Phrase: "wheelchair accessible", Tags: []overpass.Tag{tag("wheelchair", "yes")}},
		{Phrase: "open 24 hours", Tags: []overpass.Tag{tag("opening_hours", "24/7")}},
		{Phrase: "with wifi", Tags: []overpass.Tag{tag("internet_access", "wlan")}},
		{Phrase: "with free wifi", Tags: []overpass.Tag{tag("internet_access", "wlan"), tag("internet_access:fee", "no")}},
		{Phrase: "vegan", Tags: []overpass.Tag{tag("diet:vegan", "yes")}},
		{Phrase: "vegetarian", Tags: []overpass.Tag{tag("diet:vegetarian", "yes")}},
		{Phrase: "dog friendly", Tags: []overpass.Tag{tag("dog", "yes")}},
		{Phrase: "with takeaway", Tags: []overpass.Tag{tag("takeaway", "yes")}},
		{Phrase: "drive through", Tags: []overpass.Tag{tag("drive_through", "yes")}},
	}

	d, err := New(features, modifiers)
	if err != nil {
		// The built-in tables are fixed at compile time; a construction
		// failure is a programming error.
		panic("dictionary: invalid built-in tables: " + err.Error())
	}
	return d
}
