// Package text turns raw caption and query strings into normalized terms.
//
// A Normalizer applies the same pipeline to documents and queries so both
// live in one term space:
//
//  1. <img ...> tags become the placeholder "image_token"
//  2. remaining markup tags are stripped
//  3. [img_assist ...] directives are removed
//  4. URLs become the placeholder "url_token"
//  5. the text is split into alphabetic word runs
//  6. words are lowercased (and, in lemma mode, reduced to a lemma or stem)
//  7. stopwords are dropped
//
// The simple mode stops after lowercasing. The lemma mode tags each word with
// a part of speech, applies morphological detachment rules and accepts a
// candidate only if the configured Lexicon knows it, falling back to the
// Snowball English stem and finally to the surface form.
package text
