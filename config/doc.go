// Package config loads capsearch settings from a YAML file.
//
// Every field has a default, so a file only needs to name what it changes:
//
//	database:
//	  path: ./capsearch.db
//	resources:
//	  embeddings: ./data/embeddings.cset
//	  stopwords: ./data/stopwords.txt
//	search:
//	  threshold: 0.25
//	  limit: 10
package config
