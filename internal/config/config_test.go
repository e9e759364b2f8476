package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected postgres driver, got %q", cfg.Database.Driver)
	}
	if cfg.Extractor.Model != "facenet" {
		t.Errorf("expected facenet model, got %q", cfg.Extractor.Model)
	}
	if cfg.Matching.Dim != 128 {
		t.Errorf("expected dim 128 for facenet, got %d", cfg.Matching.Dim)
	}
	if cfg.Matching.Threshold != 10.0 {
		t.Errorf("expected threshold 10.0 for facenet, got %v", cfg.Matching.Threshold)
	}
	if cfg.Uploads.Dir != "uploads" {
		t.Errorf("expected uploads dir, got %q", cfg.Uploads.Dir)
	}
}

func TestLoadModelSelection(t *testing.T) {
	t.Setenv("EXTRACTOR_MODEL", "facenet512")
	cfg := Load()

	if cfg.Matching.Dim != 512 {
		t.Errorf("expected dim 512 for facenet512, got %d", cfg.Matching.Dim)
	}
	if cfg.Matching.Threshold == 10.0 {
		t.Error("facenet512 threshold should differ from facenet default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "4.5")
	t.Setenv("EMBEDDING_DIM", "256")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("MATCH_USE_INDEX", "false")
	cfg := Load()

	if cfg.Matching.Threshold != 4.5 {
		t.Errorf("expected threshold 4.5, got %v", cfg.Matching.Threshold)
	}
	if cfg.Matching.Dim != 256 {
		t.Errorf("expected dim 256, got %d", cfg.Matching.Dim)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("expected mysql driver, got %q", cfg.Database.Driver)
	}
	if cfg.Matching.UseIndex {
		t.Error("expected index disabled")
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "-3")
	t.Setenv("EMBEDDING_DIM", "banana")
	cfg := Load()

	if cfg.Matching.Threshold != 10.0 {
		t.Errorf("negative threshold must fall back to default, got %v", cfg.Matching.Threshold)
	}
	if cfg.Matching.Dim != 128 {
		t.Errorf("invalid dim must fall back to default, got %d", cfg.Matching.Dim)
	}
}

func TestModelParams(t *testing.T) {
	cfg := Load()

	params, ok := cfg.ModelParams("arcface")
	if !ok {
		t.Fatal("expected arcface in models.yaml")
	}
	if params.Dim != 512 {
		t.Errorf("expected arcface dim 512, got %d", params.Dim)
	}

	if _, ok := cfg.ModelParams("unknown-model"); ok {
		t.Error("unknown model must not resolve")
	}
}
