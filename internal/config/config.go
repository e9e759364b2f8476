package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

type Config struct {
	Database  DatabaseConfig
	Extractor ExtractorConfig
	Matching  MatchingConfig
	Uploads   UploadsConfig
	Models    ModelsConfig
}

type DatabaseConfig struct {
	Driver       string // "postgres" (default) or "mysql"
	URL          string // PostgreSQL connection URL
	MySQLDSN     string // MySQL/MariaDB DSN, used when Driver is "mysql"
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type ExtractorConfig struct {
	URL   string // face embedding service, defaults to http://localhost:8000
	Model string // extractor model name, defaults to facenet
}

type MatchingConfig struct {
	Threshold float32 // maximum Euclidean distance for a same-identity match
	Dim       int     // embedding dimension, fixed by the extractor model
	IndexK    int     // ANN candidate count for the verification fast path
	UseIndex  bool    // enable the in-memory candidate index
}

type UploadsConfig struct {
	Dir string // directory for enrollment photos (default "uploads")
}

type ModelsConfig struct {
	Models map[string]ModelParams `yaml:"models"`
}

// ModelParams holds the per-model embedding dimension and recommended
// matching threshold.
type ModelParams struct {
	Dim       int     `yaml:"dim"`
	Threshold float32 `yaml:"threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float32) float32 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 32); err == nil && f > 0 {
		return float32(f)
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean, defaulting when unset.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal
	}
	return b
}

func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	model := os.Getenv("EXTRACTOR_MODEL")
	if model == "" {
		model = "facenet"
	}

	// Model defaults, overridable per environment.
	dim := 128
	threshold := float32(10.0)
	if params, ok := models.Models[model]; ok {
		dim = params.Dim
		threshold = params.Threshold
	}

	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}

	return &Config{
		Database: DatabaseConfig{
			Driver:       driver,
			URL:          os.Getenv("DATABASE_URL"),
			MySQLDSN:     os.Getenv("MYSQL_DSN"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Extractor: ExtractorConfig{
			URL:   os.Getenv("EXTRACTOR_URL"),
			Model: model,
		},
		Matching: MatchingConfig{
			Threshold: envFloat("MATCH_THRESHOLD", threshold),
			Dim:       envInt("EMBEDDING_DIM", dim),
			IndexK:    envInt("MATCH_INDEX_K", 16),
			UseIndex:  envBool("MATCH_USE_INDEX", true),
		},
		Uploads: UploadsConfig{
			Dir: uploadsDir,
		},
		Models: models,
	}
}

// ModelParams returns the known parameters for an extractor model,
// or false if the model is not listed in models.yaml.
func (c *Config) ModelParams(name string) (ModelParams, bool) {
	params, ok := c.Models.Models[name]
	return params, ok
}
