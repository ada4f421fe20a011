package server

import (
	"flag"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TUBEWATCH_SECRET_KEY", "test-secret")
	t.Setenv("TUBEWATCH_YOUTUBE_API_KEY", "yt-key")
}

func TestParseConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q, want default", cfg.Addr)
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Fatalf("mongo uri = %q, want default", cfg.MongoURI)
	}
	if cfg.DatabaseName != "tubewatch" {
		t.Fatalf("database = %q, want default", cfg.DatabaseName)
	}
	if cfg.IngestDBPath != "ingest.db" {
		t.Fatalf("ingest db = %q, want default", cfg.IngestDBPath)
	}
}

func TestParseConfigEnvAndFlagOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TUBEWATCH_API_ADDR", ":9090")
	t.Setenv("TUBEWATCH_API_KEYS", "key-one,key-two")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-ingest-db", "/tmp/attempts.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("addr = %q, want env override", cfg.Addr)
	}
	if len(cfg.APIKeys) != 2 || cfg.APIKeys[1] != "key-two" {
		t.Fatalf("api keys = %v, want split list", cfg.APIKeys)
	}
	if cfg.IngestDBPath != "/tmp/attempts.db" {
		t.Fatalf("ingest db = %q, want flag override", cfg.IngestDBPath)
	}
}

func TestParseConfigRequiresSecretKey(t *testing.T) {
	t.Setenv("TUBEWATCH_SECRET_KEY", "")
	t.Setenv("TUBEWATCH_YOUTUBE_API_KEY", "yt-key")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error for missing secret key")
	}
}

func TestParseConfigRequiresYouTubeKey(t *testing.T) {
	t.Setenv("TUBEWATCH_SECRET_KEY", "test-secret")
	t.Setenv("TUBEWATCH_YOUTUBE_API_KEY", "")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error for missing youtube api key")
	}
}
