package naming

import (
	"log/slog"
	"sort"
	"strings"

	"document-hydrator/internal/inflect"

	"github.com/jinzhu/inflection"
)

// Namer pluralizes words for key rewriting. It checks custom overrides first,
// then falls back to the configured backend.
type Namer struct {
	config Config
	logger *slog.Logger
	rules  *inflect.Ruleset
}

// New creates a Namer with the given configuration
func New(cfg Config, logger *slog.Logger) *Namer {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.Backend) == "" {
		cfg.Backend = BackendInflect
	}

	n := &Namer{
		config: cfg,
		logger: logger,
	}

	if cfg.Backend == BackendInflect {
		n.rules = inflect.Default()
		// Sorted so registration order (and therefore rule priority) is stable.
		singulars := make([]string, 0, len(cfg.Irregulars))
		for singular := range cfg.Irregulars {
			singulars = append(singulars, singular)
		}
		sort.Strings(singulars)
		for _, singular := range singulars {
			n.rules.Irregular(singular, cfg.Irregulars[singular])
		}
		n.rules.Uncountable(cfg.Uncountables...)
	} else if len(cfg.Irregulars) > 0 || len(cfg.Uncountables) > 0 {
		logger.Warn("naming irregulars and uncountables only apply to the inflect backend",
			slog.String("backend", cfg.Backend),
		)
	}

	return n
}

// Default returns a Namer with default configuration
func Default() *Namer {
	return New(DefaultConfig(), nil)
}

// Backend returns the active backend name.
func (n *Namer) Backend() string {
	return n.config.Backend
}

// Pluralize converts a singular word to its plural form.
func (n *Namer) Pluralize(word string) string {
	if override, ok := n.config.PluralOverrides[word]; ok {
		return override
	}
	if n.rules == nil {
		return inflection.Plural(word)
	}
	return n.rules.Pluralize(word)
}
