package text

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode names a normalization variant. It is stored with every index so
// queries are normalized exactly like the documents they are scored against.
type Mode string

const (
	// ModeSimple tokenizes and lowercases.
	ModeSimple Mode = "simple"
	// ModeLemma additionally reduces each word to a lemma or stem.
	ModeLemma Mode = "lemma"
)

// ParseMode validates a mode name. An empty name selects ModeSimple.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(name)) {
	case "", ModeSimple:
		return ModeSimple, nil
	case ModeLemma:
		return ModeLemma, nil
	default:
		return "", fmt.Errorf("unknown tokenizer mode %q: must be one of simple, lemma", name)
	}
}

const (
	ImageToken = "image_token"
	URLToken   = "url_token"
)

var (
	imageTagPattern  = regexp.MustCompile(`<img[^<>]+(>|$)`)
	markupPattern    = regexp.MustCompile(`<[^<>]+(>|$)`)
	imgAssistPattern = regexp.MustCompile(`\[img_assist[^\]]*?\]`)
	urlPattern       = regexp.MustCompile(`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	wordPattern      = regexp.MustCompile(`[\p{L}\p{M}_]+`)
)

// Clean applies the markup and URL substitutions that precede tokenization.
func Clean(text string) string {
	text = imageTagPattern.ReplaceAllString(text, " "+ImageToken+" ")
	text = markupPattern.ReplaceAllString(text, " ")
	text = imgAssistPattern.ReplaceAllString(text, " ")
	text = urlPattern.ReplaceAllString(text, " "+URLToken+" ")
	return text
}

// Tokenize splits cleaned text into runs of letters (digits and punctuation
// separate words). Case is preserved.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// Normalizer converts text into normalized terms. It is immutable after
// construction and safe for concurrent use.
type Normalizer struct {
	stopwords  StopwordSet
	mode       Mode
	tagger     Tagger
	lemmatizer *Lemmatizer
}

// Option configures a Normalizer.
type Option func(*Normalizer) error

// WithLemmatizer switches the normalizer to ModeLemma, checking lemma and
// stem candidates against lexicon.
func WithLemmatizer(lexicon Lexicon) Option {
	return func(n *Normalizer) error {
		if lexicon == nil {
			return fmt.Errorf("lemmatizer requires a lexicon")
		}
		n.mode = ModeLemma
		n.lemmatizer = NewLemmatizer(lexicon, false)
		return nil
	}
}

// WithTagger sets the part-of-speech tagger used in ModeLemma.
// Default is SuffixTagger.
func WithTagger(tagger Tagger) Option {
	return func(n *Normalizer) error {
		if tagger == nil {
			tagger = SuffixTagger{}
		}
		n.tagger = tagger
		return nil
	}
}

// New creates a normalizer that drops the given stopwords.
// A nil set disables stopword removal.
func New(stopwords StopwordSet, opts ...Option) (*Normalizer, error) {
	if stopwords == nil {
		stopwords = StopwordSet{}
	}
	n := &Normalizer{
		stopwords: stopwords,
		mode:      ModeSimple,
		tagger:    SuffixTagger{},
	}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Mode reports which variant this normalizer implements.
func (n *Normalizer) Mode() Mode {
	return n.mode
}

// Normalize returns the ordered terms of text. The result may be empty.
func (n *Normalizer) Normalize(text string) []string {
	tokens := Tokenize(Clean(text))
	if len(tokens) == 0 {
		return []string{}
	}

	var tags []string
	if n.mode == ModeLemma {
		tags = n.tagger.Tag(tokens)
	}

	terms := make([]string, 0, len(tokens))
	for i, token := range tokens {
		term := strings.ToLower(token)
		if n.mode == ModeLemma && !strings.Contains(term, "_") {
			pos := PosNone
			if i < len(tags) {
				pos = PennToPos(tags[i])
			}
			term = n.lemmatizer.Lemmatize(term, pos)
		}
		if n.stopwords.Contains(term) {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}
