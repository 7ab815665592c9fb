// Package naming provides the configurable pluralization front-end used when
// hydrated keys are rewritten, e.g. "user_ids" -> "users".
package naming

// Pluralizer backends.
const (
	BackendInflect    = "inflect"
	BackendInflection = "inflection"
)

// Config holds naming customization options
type Config struct {
	// Backend selects the rule table: "inflect" (default, owned per Namer)
	// or "inflection" (github.com/jinzhu/inflection defaults).
	Backend string `mapstructure:"backend"`

	// PluralOverrides maps singular -> custom plural and is checked before any rules.
	// Example: {"person": "persons", "status": "statuses"}
	PluralOverrides map[string]string `mapstructure:"plural_overrides"`

	// Irregulars registers extra singular -> plural pairs with the inflect backend.
	Irregulars map[string]string `mapstructure:"irregulars"`

	// Uncountables lists words the inflect backend never pluralizes.
	Uncountables []string `mapstructure:"uncountables"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Backend:         BackendInflect,
		PluralOverrides: make(map[string]string),
		Irregulars:      make(map[string]string),
	}
}
