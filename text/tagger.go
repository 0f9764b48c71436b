package text

import "strings"

// Pos is the coarse morphological class used to pick lemmatization rules.
type Pos int

const (
	// PosNone means no usable tag; lemmatization falls back to noun rules.
	PosNone Pos = iota
	PosNoun
	PosVerb
	PosAdj
	PosAdv
)

// String returns the WordNet-style single letter for the class.
func (p Pos) String() string {
	switch p {
	case PosNoun:
		return "n"
	case PosVerb:
		return "v"
	case PosAdj:
		return "a"
	case PosAdv:
		return "r"
	default:
		return ""
	}
}

// PennToPos maps a Penn Treebank tag onto a morphological class.
// Unknown tags map to PosNone.
func PennToPos(tag string) Pos {
	if len(tag) < 2 {
		return PosNone
	}
	switch tag[:2] {
	case "NN":
		return PosNoun
	case "VB":
		return PosVerb
	case "JJ":
		return PosAdj
	case "RB":
		return PosAdv
	default:
		return PosNone
	}
}

// Tagger assigns a Penn Treebank tag to every token of a sentence.
// Implementations must be safe for concurrent use.
type Tagger interface {
	Tag(tokens []string) []string
}

// SuffixTagger is a rule-based tagger: closed-class word lists first, then
// context (after a modal or "to" comes a verb) and finally suffix rules.
type SuffixTagger struct{}

var _ Tagger = SuffixTagger{}

var closedClass = map[string]string{
	"a": "DT", "an": "DT", "the": "DT", "this": "DT", "that": "DT", "these": "DT", "those": "DT",
	"each": "DT", "every": "DT", "some": "DT", "any": "DT", "no": "DT", "all": "DT",
	"i": "PRP", "me": "PRP", "you": "PRP", "he": "PRP", "him": "PRP", "she": "PRP", "her": "PRP$",
	"it": "PRP", "we": "PRP", "us": "PRP", "they": "PRP", "them": "PRP",
	"my": "PRP$", "your": "PRP$", "his": "PRP$", "its": "PRP$", "our": "PRP$", "their": "PRP$",
	"and": "CC", "or": "CC", "but": "CC", "nor": "CC",
	"of": "IN", "in": "IN", "on": "IN", "at": "IN", "by": "IN", "for": "IN", "with": "IN",
	"from": "IN", "into": "IN", "about": "IN", "over": "IN", "under": "IN", "between": "IN",
	"through": "IN", "during": "IN", "before": "IN", "after": "IN", "if": "IN", "because": "IN",
	"to":  "TO",
	"can": "MD", "could": "MD", "will": "MD", "would": "MD", "shall": "MD", "should": "MD",
	"may": "MD", "might": "MD", "must": "MD",
	"is": "VBZ", "are": "VBP", "was": "VBD", "were": "VBD", "be": "VB", "been": "VBN", "being": "VBG",
	"am": "VBP", "has": "VBZ", "have": "VBP", "had": "VBD", "do": "VBP", "does": "VBZ", "did": "VBD",
	"not": "RB", "very": "RB", "also": "RB", "just": "RB", "so": "RB", "then": "RB", "now": "RB",
	"here": "RB", "there": "EX", "too": "RB",
	"what": "WP", "who": "WP", "which": "WDT", "when": "WRB", "where": "WRB", "why": "WRB", "how": "WRB",
}

var adjectiveSuffixes = []string{"ous", "ful", "able", "ible", "ive", "less", "ic", "ical", "ish", "ary"}

// Tag implements Tagger.
func (SuffixTagger) Tag(tokens []string) []string {
	tags := make([]string, len(tokens))
	prev := ""
	for i, token := range tokens {
		word := strings.ToLower(token)
		tag := tagWord(word, prev)
		tags[i] = tag
		// adverbs do not break modal + verb context ("will quickly learn")
		if tag != "RB" {
			prev = tag
		}
	}
	return tags
}

func tagWord(word, prev string) string {
	if tag, ok := closedClass[word]; ok {
		return tag
	}
	if _, ok := irregular[PosVerb][word]; ok {
		return "VBD"
	}
	if strings.HasSuffix(word, "ly") && len(word) > 4 {
		return "RB"
	}
	if prev == "MD" || prev == "TO" {
		return "VB"
	}
	switch {
	case strings.HasSuffix(word, "ing") && len(word) > 5:
		return "VBG"
	case strings.HasSuffix(word, "ed") && len(word) > 4:
		if prev == "DT" || prev == "PRP$" {
			return "JJ"
		}
		return "VBD"
	case strings.HasSuffix(word, "est") && len(word) > 5:
		return "JJS"
	}
	for _, suffix := range adjectiveSuffixes {
		if strings.HasSuffix(word, suffix) && len(word) > len(suffix)+2 {
			return "JJ"
		}
	}
	if strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && len(word) > 3 {
		if prev == "PRP" || prev == "NN" {
			return "VBZ"
		}
		return "NNS"
	}
	return "NN"
}
