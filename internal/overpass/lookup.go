package overpass

// TagLookupResult describes what an external tag authority reports about a
// single key/value pair. Alternatives carries replacement tags when the
// authority flags the pair as deprecated.
type TagLookupResult struct {
	Valid        bool  `json:"valid"`
	Deprecated   bool  `json:"deprecated"`
	Alternatives []Tag `json:"alternatives,omitempty"`
}
