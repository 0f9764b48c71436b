package text

import (
	"strings"

	"github.com/kljensen/snowball/english"
)

// Lexicon is the lexical reference the lemmatizer checks candidates against.
// An embedding table is a natural lexicon: it accepts exactly the forms that
// can take part in embedding similarity.
type Lexicon interface {
	Contains(word string) bool
}

// WordList is a Lexicon backed by a set of words.
type WordList map[string]struct{}

// NewWordList builds a WordList from words.
func NewWordList(words ...string) WordList {
	wl := make(WordList, len(words))
	for _, w := range words {
		wl[w] = struct{}{}
	}
	return wl
}

// Contains implements Lexicon.
func (w WordList) Contains(word string) bool {
	_, ok := w[word]
	return ok
}

type detachment struct {
	suffix, replacement string
}

// Morphological detachment rules per class, tried in order.
var detachments = map[Pos][]detachment{
	PosNoun: {
		{"s", ""}, {"ses", "s"}, {"ves", "f"}, {"xes", "x"}, {"zes", "z"},
		{"ches", "ch"}, {"shes", "sh"}, {"men", "man"}, {"ies", "y"},
	},
	PosVerb: {
		{"s", ""}, {"ies", "y"}, {"es", "e"}, {"es", ""},
		{"ed", "e"}, {"ed", ""}, {"ing", "e"}, {"ing", ""},
	},
	PosAdj: {
		{"er", ""}, {"est", ""}, {"er", "e"}, {"est", "e"},
	},
}

// Irregular forms the detachment rules cannot reach.
var irregular = map[Pos]map[string]string{
	PosNoun: {
		"children": "child", "people": "person", "mice": "mouse", "geese": "goose",
		"feet": "foot", "teeth": "tooth", "women": "woman", "men": "man", "data": "datum",
	},
	PosVerb: {
		"was": "be", "were": "be", "is": "be", "are": "be", "am": "be", "been": "be",
		"went": "go", "gone": "go", "did": "do", "done": "do", "had": "have", "has": "have",
		"made": "make", "said": "say", "took": "take", "taken": "take", "saw": "see", "seen": "see",
		"came": "come", "got": "get", "gotten": "get", "knew": "know", "known": "know",
		"thought": "think", "found": "find", "gave": "give", "given": "give", "told": "tell",
		"became": "become", "left": "leave", "felt": "feel", "brought": "bring", "began": "begin",
		"begun": "begin", "kept": "keep", "held": "hold", "wrote": "write", "written": "write",
		"stood": "stand", "heard": "hear", "meant": "mean", "met": "meet", "ran": "run",
		"paid": "pay", "sat": "sit", "spoke": "speak", "spoken": "speak", "led": "lead",
		"grew": "grow", "grown": "grow", "lost": "lose", "fell": "fall", "fallen": "fall",
		"sent": "send", "built": "build", "understood": "understand", "drew": "draw", "drawn": "draw",
		"broke": "break", "broken": "break", "spent": "spend", "taught": "teach", "bought": "buy",
		"caught": "catch", "forgot": "forget", "forgotten": "forget", "chose": "choose", "chosen": "choose",
	},
	PosAdj: {
		"better": "good", "best": "good", "worse": "bad", "worst": "bad",
	},
}

// Lemmatizer reduces words to dictionary lemmas, falling back to stems and
// then to the surface form. It is immutable and safe for concurrent use.
type Lemmatizer struct {
	lexicon   Lexicon
	neverStem bool
}

// NewLemmatizer creates a lemmatizer that accepts only forms known to lexicon.
// With neverStem set, a word without a known lemma is returned unchanged.
func NewLemmatizer(lexicon Lexicon, neverStem bool) *Lemmatizer {
	return &Lemmatizer{lexicon: lexicon, neverStem: neverStem}
}

// Lemmatize returns the lemma of a lowercase word for the given class.
func (l *Lemmatizer) Lemmatize(word string, pos Pos) string {
	lemma := l.lemma(word, pos)
	if l.lexicon.Contains(lemma) {
		return lemma
	}
	if l.neverStem {
		return word
	}
	if stem := english.Stem(word, false); l.lexicon.Contains(stem) {
		return stem
	}
	return word
}

// lemma returns the shortest known candidate, or word itself if no candidate
// is known. Untagged words use noun rules.
func (l *Lemmatizer) lemma(word string, pos Pos) string {
	if pos == PosNone {
		pos = PosNoun
	}
	if base, ok := irregular[pos][word]; ok {
		return base
	}

	best := ""
	consider := func(candidate string) {
		if candidate == "" || !l.lexicon.Contains(candidate) {
			return
		}
		if best == "" || len(candidate) < len(best) {
			best = candidate
		}
	}
	consider(word)
	for _, rule := range detachments[pos] {
		if strings.HasSuffix(word, rule.suffix) {
			consider(strings.TrimSuffix(word, rule.suffix) + rule.replacement)
		}
	}
	if best == "" {
		return word
	}
	return best
}
