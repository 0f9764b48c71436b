package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is returned when a setting is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// File is the schema of a capsearch configuration file.
type File struct {
	Database  Database  `yaml:"database"`
	Resources Resources `yaml:"resources"`
	Embedding Embedding `yaml:"embedding"`
	Index     Index     `yaml:"index"`
	Search    Search    `yaml:"search"`
	Server    Server    `yaml:"server"`
}

// Database locates the index store.
type Database struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// Resources locates the files the embedding table and normalizer load.
type Resources struct {
	Embeddings   string `yaml:"embeddings"`    // Embedding cache file or chunk directory
	Vectors      string `yaml:"vectors"`       // word2vec text vectors, optionally gzipped
	VectorsLimit int    `yaml:"vectors_limit"` // 0 reads every vector
	Vocabulary   string `yaml:"vocabulary"`    // Word list embedded through the service
	Stopwords    string `yaml:"stopwords"`     // Empty uses the built-in English list
}

// Embedding configures the embedding service used to build a table from a vocabulary.
type Embedding struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	Token     string `yaml:"token"`
	BatchSize int    `yaml:"batch_size"`
}

// Index configures the build path.
type Index struct {
	Tokenizer           string  `yaml:"tokenizer"` // "simple" or "lemma"
	MergeSeconds        float64 `yaml:"merge_seconds"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	Exponent            float64 `yaml:"exponent"`
	NonzeroLimit        int     `yaml:"nonzero_limit"`
	PoolSize            int     `yaml:"pool_size"` // 0 picks a default from the CPU count
}

// Search configures query defaults.
type Search struct {
	Threshold float64 `yaml:"threshold"` // negative ranks every caption
	Limit     int     `yaml:"limit"`
	CacheSize int     `yaml:"cache_size"` // loaded indexes kept in memory
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the settings used when no file is given.
func Default() *File {
	return &File{
		Database: Database{Path: "capsearch.db"},
		Embedding: Embedding{
			Host:      "http://localhost:11434/v1",
			Model:     "nomic-embed-text",
			Token:     "none",
			BatchSize: 256,
		},
		Index: Index{
			Tokenizer:           "simple",
			SimilarityThreshold: 0,
			Exponent:            2,
			NonzeroLimit:        100,
		},
		Search: Search{Threshold: 0.2, Limit: 8, CacheSize: 64},
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*File, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks that every setting is in range.
func (f *File) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(f.Database.InMemory || strings.TrimSpace(f.Database.Path) != "", "database.path is required")
	check(f.Resources.VectorsLimit >= 0, "resources.vectors_limit must not be negative")
	check(f.Embedding.BatchSize >= 1, "embedding.batch_size must be at least 1")
	check(f.Index.Tokenizer == "simple" || f.Index.Tokenizer == "lemma",
		"index.tokenizer %q must be simple or lemma", f.Index.Tokenizer)
	check(f.Index.MergeSeconds >= 0, "index.merge_seconds must not be negative")
	check(f.Index.SimilarityThreshold >= 0 && f.Index.SimilarityThreshold < 1,
		"index.similarity_threshold must be in [0, 1)")
	check(f.Index.Exponent > 0, "index.exponent must be positive")
	check(f.Index.NonzeroLimit >= 0, "index.nonzero_limit must not be negative")
	check(f.Index.PoolSize >= 0, "index.pool_size must not be negative")
	check(f.Search.Threshold <= 1, "search.threshold must be at most 1")
	check(f.Search.Limit >= 0, "search.limit must not be negative")
	check(f.Search.CacheSize >= 1, "search.cache_size must be at least 1")
	check(f.Server.Addr != "", "server.addr is required")

	return errors.Join(errs...)
}
