package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Store.Backend)
	}
	if cfg.Store.DatabaseID != "scrumban" || cfg.Store.ProjectID != "scrumban" {
		t.Fatalf("expected embedded store ids, got %+v", cfg.Store)
	}
	if cfg.Server.RequestTimeout.Seconds() != 30 {
		t.Fatalf("expected 30s request timeout, got %v", cfg.Server.RequestTimeout)
	}
}

func TestLoadStoreOverridesFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_BACKEND", BackendMongo)
	t.Setenv("STORE_ENDPOINT", "mongodb://db:27017")
	t.Setenv("STORE_PROJECT_ID", "proj")
	t.Setenv("STORE_DATABASE_ID", "db1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := StoreConfig{Backend: BackendMongo, Endpoint: "mongodb://db:27017", ProjectID: "proj", DatabaseID: "db1", Bootstrap: true}
	if cfg.Store != want {
		t.Fatalf("expected %+v, got %+v", want, cfg.Store)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_BACKEND", "dynamo")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without JWT secret")
	}
}
