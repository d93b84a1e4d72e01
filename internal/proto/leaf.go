package proto

import (
	"regexp"
	"strings"
)

// Aggregates lists the leaf options that wrap a projection in a SPARQL
// aggregate function and (absent an explicit var:) auto-rename the bound
// variable to "?<agg>_<name>". "sample" is a related-but-distinct wrapping
// option: it wraps in SAMPLE(...) but never renames.
var Aggregates = []string{"count", "sum", "min", "max", "avg"}

var (
	langOptionRe    = regexp.MustCompile(`^lang(?::(.+))?$`)
	bestlangOptRe   = regexp.MustCompile(`^bestlang(?::(.+))?$`)
	langTagOptionRe = regexp.MustCompile(`^langTag:(show|hide)$`)
	varOptionRe     = regexp.MustCompile(`^var:(.+)$`)
	acceptOptionRe  = regexp.MustCompile(`^accept:(.+)$`)
)

// Leaf is the parsed form of a prototype leaf string: either a variable
// reference ("?name[$opt]*") or a keyed predicate ("$predicate[$opt]*").
//
// This is the tagged record the design notes call for: every option is
// parsed once into a named field instead of threading suffix strings
// through the Walker and Shaper. Suffix encoding (written by the Walker's
// leaf rewrite, read back by ParseRewritten) is used only at the
// prototype-rewrite boundary, so the Shaper can re-read it later.
type Leaf struct {
	Keyed  bool   // true: "$predicate" keyed leaf; false: "?name" variable reference
	Target string // predicate IRI/CIRIE (keyed) or referenced variable name, no leading ?/$

	Required bool
	Sample   bool
	Distinct bool
	Reverse  bool
	PrevRoot bool
	Anchor   bool
	List     bool

	Aggregate   string // "", or one of Aggregates
	VarOverride string // var:NAME, "" if absent
	Accept      string // accept:T, "" if absent
	LangTagMode string // langTag:show|hide, "" if absent (inherits document default)

	HasLang bool
	LangTag string // lang or lang:TAG; "" tag means "use document default at walk time"

	HasBestlang bool
	BestlangTag string // bestlang:TAG; "" means "use document default at walk time"
}

// ParseLeaf parses a raw prototype value. It returns ok=false for any string
// that is not a variable reference or keyed predicate (the caller should
// then treat the value as an opaque scalar).
func ParseLeaf(raw string) (*Leaf, bool) {
	if raw == "" {
		return nil, false
	}
	switch raw[0] {
	case '?':
		return parseLeafBody(raw[1:], false), true
	case '$':
		return parseLeafBody(raw[1:], true), true
	default:
		return nil, false
	}
}

func parseLeafBody(body string, keyed bool) *Leaf {
	parts := strings.Split(body, "$")
	leaf := &Leaf{Keyed: keyed, Target: parts[0]}
	for _, opt := range parts[1:] {
		applyOption(leaf, opt)
	}
	return leaf
}

func applyOption(leaf *Leaf, opt string) {
	switch {
	case opt == "required":
		leaf.Required = true
	case opt == "sample":
		leaf.Sample = true
	case opt == "distinct":
		leaf.Distinct = true
	case opt == "reverse":
		leaf.Reverse = true
	case opt == "prevRoot":
		leaf.PrevRoot = true
	case opt == "anchor":
		leaf.Anchor = true
	case opt == "list":
		leaf.List = true
	case opt == "asList": // internal marker re-read from a rewritten leaf
		leaf.List = true
	case isAggregate(opt):
		leaf.Aggregate = opt
	case langTagOptionRe.MatchString(opt):
		leaf.LangTagMode = langTagOptionRe.FindStringSubmatch(opt)[1]
	case varOptionRe.MatchString(opt):
		leaf.VarOverride = varOptionRe.FindStringSubmatch(opt)[1]
	case acceptOptionRe.MatchString(opt):
		leaf.Accept = acceptOptionRe.FindStringSubmatch(opt)[1]
	case bestlangOptRe.MatchString(opt):
		leaf.HasBestlang = true
		leaf.BestlangTag = bestlangOptRe.FindStringSubmatch(opt)[1]
	case langOptionRe.MatchString(opt):
		leaf.HasLang = true
		leaf.LangTag = langOptionRe.FindStringSubmatch(opt)[1]
	}
}

func isAggregate(opt string) bool {
	for _, a := range Aggregates {
		if a == opt {
			return true
		}
	}
	return false
}

// RewrittenLeaf is the boundary form read back by the Shaper: a resolved
// variable name plus the three suffix markers the Walker may have attached.
type RewrittenLeaf struct {
	Var     string
	List    bool
	Accept  string
	LangTag string // "" = inherit document default
}

// ParseRewritten parses a leaf string previously rewritten by the Walker
// (internal/walk's walkLeaf).
func ParseRewritten(raw string) (*RewrittenLeaf, bool) {
	if raw == "" || raw[0] != '?' {
		return nil, false
	}
	parts := strings.Split(raw[1:], "$")
	rl := &RewrittenLeaf{Var: parts[0]}
	for _, opt := range parts[1:] {
		switch {
		case opt == "asList":
			rl.List = true
		case acceptOptionRe.MatchString(opt):
			rl.Accept = acceptOptionRe.FindStringSubmatch(opt)[1]
		case langTagOptionRe.MatchString(opt):
			rl.LangTag = langTagOptionRe.FindStringSubmatch(opt)[1]
		}
	}
	return rl, true
}
