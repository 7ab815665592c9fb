package inflect

// Default returns a new ruleset seeded with the standard English table:
// regular plural endings, irregular nouns and uncountable words.
func Default() *Ruleset {
	r := New()
	for _, p := range defaultPlurals {
		if err := r.Plural(p[0], p[1]); err != nil {
			panic(err)
		}
	}
	for _, pair := range defaultIrregulars {
		r.Irregular(pair[0], pair[1])
	}
	r.Uncountable(defaultUncountables...)
	return r
}

// Registered in order, so later entries win.
var defaultPlurals = [][2]string{
	{`$`, `s`},
	{`(?i)s$`, `s`},
	{`(?i)(ax|test)is$`, `${1}es`},
	{`(?i)(octop|vir)us$`, `${1}i`},
	{`(?i)(octop|vir)i$`, `${1}i`},
	{`(?i)(alias|status)$`, `${1}es`},
	{`(?i)(bu)s$`, `${1}ses`},
	{`(?i)(buffal|tomat)o$`, `${1}oes`},
	{`(?i)([ti])um$`, `${1}a`},
	{`(?i)([ti])a$`, `${1}a`},
	{`(?i)sis$`, `ses`},
	{`(?i)(?:([^f])fe|([lr])f)$`, `${1}${2}ves`},
	{`(?i)(hive)$`, `${1}s`},
	{`(?i)([^aeiouy]|qu)y$`, `${1}ies`},
	{`(?i)(x|ch|ss|sh)$`, `${1}es`},
	{`(?i)(matr|vert|ind)(?:ix|ex)$`, `${1}ices`},
	{`(?i)([m|l])ouse$`, `${1}ice`},
	{`(?i)([m|l])ice$`, `${1}ice`},
	{`(?i)^(ox)$`, `${1}en`},
	{`(?i)^(oxen)$`, `${1}`},
	{`(?i)(quiz)$`, `${1}zes`},
}

var defaultIrregulars = [][2]string{
	{"person", "people"},
	{"man", "men"},
	{"child", "children"},
	{"sex", "sexes"},
	{"move", "moves"},
	{"cow", "kine"},
}

var defaultUncountables = []string{
	"equipment", "information", "rice", "money", "species", "series", "fish", "sheep", "jeans",
}
