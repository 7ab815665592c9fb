// Package inflect pluralizes English words using an ordered table of
// regular-expression rules, irregular word pairs and uncountable words.
//
// A Ruleset is an explicit value rather than process-wide state: build one
// with Default (or New for an empty table), register any extra rules during
// startup and share it read-only afterwards.
package inflect

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Ruleset holds plural rules and uncountable words.
// Rules registered later take priority over rules registered earlier.
type Ruleset struct {
	mu           sync.RWMutex
	plurals      []rule // newest first
	uncountables map[string]struct{}
}

// New returns an empty ruleset. Pluralize returns every word unchanged
// until rules are registered.
func New() *Ruleset {
	return &Ruleset{
		uncountables: make(map[string]struct{}),
	}
}

// Plural registers a pluralization rule. The pattern uses Go regexp syntax
// and the replacement may reference capture groups as ${1}, ${2}, ...
func (r *Ruleset) Plural(pattern, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid plural rule %q: %w", pattern, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.addPluralLocked(re, replacement)
	return nil
}

func (r *Ruleset) addPluralLocked(re *regexp.Regexp, replacement string) {
	delete(r.uncountables, strings.ToLower(replacement))
	r.plurals = append([]rule{{pattern: re, replacement: replacement}}, r.plurals...)
}

// Irregular registers a singular/plural pair that the regular rules would get wrong,
// e.g. Irregular("person", "people").
//
// When both words start with the same letter two case-insensitive rules are added
// and the leading letter's case is carried over from the input. Otherwise four rules
// are added so that "Cow" becomes "Kine" and "cow" becomes "kine". Both spellings
// are removed from the uncountable set.
func (r *Ruleset) Irregular(singular, plural string) {
	if singular == "" || plural == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.uncountables, strings.ToLower(singular))
	delete(r.uncountables, strings.ToLower(plural))

	sHead, sTail := splitFirst(singular)
	pHead, pTail := splitFirst(plural)

	if strings.EqualFold(sHead, pHead) {
		r.addPluralLocked(
			regexp.MustCompile("(?i)("+regexp.QuoteMeta(sHead)+")"+regexp.QuoteMeta(sTail)+"$"),
			"${1}"+escapeReplacement(pTail),
		)
		r.addPluralLocked(
			regexp.MustCompile("(?i)("+regexp.QuoteMeta(pHead)+")"+regexp.QuoteMeta(pTail)+"$"),
			"${1}"+escapeReplacement(pTail),
		)
		return
	}

	for _, word := range []struct{ head, tail string }{{sHead, sTail}, {pHead, pTail}} {
		upper, lower := strings.ToUpper(word.head), strings.ToLower(word.head)
		r.addPluralLocked(
			regexp.MustCompile(regexp.QuoteMeta(upper)+"(?i)"+regexp.QuoteMeta(word.tail)+"$"),
			escapeReplacement(strings.ToUpper(pHead)+pTail),
		)
		r.addPluralLocked(
			regexp.MustCompile(regexp.QuoteMeta(lower)+"(?i)"+regexp.QuoteMeta(word.tail)+"$"),
			escapeReplacement(strings.ToLower(pHead)+pTail),
		)
	}
}

// Uncountable adds words that are never pluralized. Matching is case-insensitive.
func (r *Ruleset) Uncountable(words ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, word := range words {
		r.uncountables[strings.ToLower(word)] = struct{}{}
	}
}

// Pluralize returns the plural form of word. Empty and uncountable words are
// returned unchanged, as is any word no rule matches.
//
//	"post"         -> "posts"
//	"octopus"      -> "octopi"
//	"sheep"        -> "sheep"
//	"CamelOctopus" -> "CamelOctopi"
func (r *Ruleset) Pluralize(word string) string {
	if word == "" {
		return word
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.uncountables[strings.ToLower(word)]; ok {
		return word
	}
	for _, rl := range r.plurals {
		if rl.pattern.MatchString(word) {
			return rl.pattern.ReplaceAllString(word, rl.replacement)
		}
	}
	return word
}

// Len reports the number of registered plural rules.
func (r *Ruleset) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plurals)
}

func splitFirst(word string) (string, string) {
	_, size := utf8.DecodeRuneInString(word)
	return word[:size], word[size:]
}

func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
