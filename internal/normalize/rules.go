package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Rule is a single named string transform.
type Rule struct {
	Name  string
	Apply func(string) string
}

// RuleSet is an ordered, versioned list of rules.
type RuleSet struct {
	Name  string
	Rules []Rule
}

// RuleNames lists the rule names in application order.
func (rs RuleSet) RuleNames() []string {
	names := make([]string, len(rs.Rules))
	for i, r := range rs.Rules {
		names[i] = r.Name
	}
	return names
}

// DefaultRuleSet is used when no rule set is configured.
const DefaultRuleSet = "v4"

// DefaultExtensions are stripped from the end of names. Only listed
// extensions are removed so titles such as "Vol. 2" survive.
var DefaultExtensions = []string{"pdf", "mp3", "m4a", "wav", "flac", "txt", "json", "xml", "musicxml", "mxl", "mscz", "png", "jpg", "jpeg", "zip", "doc", "docx"}

var (
	reSpaces      = regexp.MustCompile(`[ \t]+`)
	reUnderscores = regexp.MustCompile(`_+`)
	reAmpersand   = regexp.MustCompile(`\s*&\s*`)
	reBrackets    = regexp.MustCompile(`[\[\](){}<>]+`)
	reHyphen      = regexp.MustCompile(`\s+-\s*|\s*-\s+`)
	reSongsMiddle = regexp.MustCompile(`/songs/`)
	reSongsTail   = regexp.MustCompile(`/songs$`)
)

var apostropheReplacer = strings.NewReplacer("'", "", "’", "", "‘", "", "`", "")

func lowercaseRule() Rule {
	return Rule{Name: "lowercase", Apply: strings.ToLower}
}

func foldUnicodeRule() Rule {
	return Rule{Name: "fold-unicode", Apply: foldUnicode}
}

// foldUnicode folds width/compatibility forms and strips combining marks
// (é -> e, ñ -> n).
func foldUnicode(s string) string {
	s = norm.NFKC.String(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func stripExtensionRule(extensions []string) Rule {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	return Rule{Name: "strip-extension", Apply: func(s string) string {
		idx := strings.LastIndexByte(s, '.')
		if idx <= 0 || idx == len(s)-1 {
			return s
		}
		if strings.ContainsRune(s[idx:], '/') {
			return s
		}
		if _, ok := set[strings.ToLower(s[idx+1:])]; !ok {
			return s
		}
		return s[:idx]
	}}
}

func underscoresToSpacesRule() Rule {
	return Rule{Name: "underscores-to-spaces", Apply: func(s string) string {
		s = strings.ReplaceAll(s, "_", " ")
		return reSpaces.ReplaceAllString(s, " ")
	}}
}

func collapseUnderscoresRule() Rule {
	return Rule{Name: "collapse-underscores", Apply: func(s string) string {
		return reUnderscores.ReplaceAllString(s, "_")
	}}
}

// trimRule strips whitespace and underscores around the whole string and
// around every path segment.
func trimRule() Rule {
	return Rule{Name: "trim", Apply: func(s string) string {
		return trimSegments(s, " \t_")
	}}
}

func trimSegments(s, cutset string) string {
	if !strings.ContainsRune(s, '/') {
		return strings.Trim(s, cutset)
	}
	parts := strings.Split(s, "/")
	for i, p := range parts {
		parts[i] = strings.Trim(p, cutset)
	}
	return strings.Trim(strings.Join(parts, "/"), cutset)
}

func ampersandRule() Rule {
	return Rule{Name: "ampersand", Apply: func(s string) string {
		if !strings.Contains(s, "&") {
			return s
		}
		return reAmpersand.ReplaceAllString(s, " and ")
	}}
}

func apostropheRule() Rule {
	return Rule{Name: "apostrophes", Apply: apostropheReplacer.Replace}
}

func bracketRule() Rule {
	return Rule{Name: "brackets", Apply: func(s string) string {
		s = reBrackets.ReplaceAllString(s, "_")
		return reUnderscores.ReplaceAllString(s, "_")
	}}
}

// songsSegmentRule removes the optional "songs" subfolder some producers
// insert between the book folder and its files. Input is already lowercase.
func songsSegmentRule() Rule {
	return Rule{Name: "songs-segment", Apply: func(s string) string {
		s = reSongsMiddle.ReplaceAllString(s, "/")
		return reSongsTail.ReplaceAllString(s, "")
	}}
}

func hyphenSpacingRule() Rule {
	return Rule{Name: "hyphen-spacing", Apply: func(s string) string {
		if !strings.Contains(s, "-") {
			return s
		}
		return trimSegments(reHyphen.ReplaceAllString(s, " - "), " ")
	}}
}

func baseRules(extensions []string) []Rule {
	return []Rule{
		lowercaseRule(),
		stripExtensionRule(extensions),
		underscoresToSpacesRule(),
		collapseUnderscoresRule(),
		trimRule(),
	}
}

// RuleSetByName returns the named rule set bound to the supplied extension
// list. An empty name selects DefaultRuleSet.
func RuleSetByName(name string, extensions []string) (RuleSet, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultRuleSet
	}

	v1 := baseRules(extensions)
	v2 := append(append([]Rule{}, v1...), ampersandRule(), apostropheRule())
	v3 := append(append([]Rule{}, v2...), bracketRule(), songsSegmentRule(), hyphenSpacingRule())

	switch name {
	case "v1":
		return RuleSet{Name: name, Rules: v1}, nil
	case "v2":
		return RuleSet{Name: name, Rules: v2}, nil
	case "v3":
		return RuleSet{Name: name, Rules: v3}, nil
	case "v4":
		return RuleSet{Name: name, Rules: append([]Rule{foldUnicodeRule()}, v3...)}, nil
	default:
		return RuleSet{}, fmt.Errorf("unknown normalization rule set %q (known: %s)", name, strings.Join(KnownRuleSets(), ", "))
	}
}

// KnownRuleSets lists the rule set names accepted by RuleSetByName.
func KnownRuleSets() []string {
	names := []string{"v1", "v2", "v3", "v4"}
	sort.Strings(names)
	return names
}
