package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.OptionsTimeout != 10*time.Second || cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected duration defaults %+v", cfg)
	}
	if cfg.RedisPrefix != "formschema:options:" || cfg.Watch {
		t.Fatalf("unexpected redis/watch defaults %+v", cfg)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("FORMSCHEMA_ADDR", "127.0.0.1:9000")
	t.Setenv("FORMSCHEMA_SCHEMA", "form.yaml")
	t.Setenv("FORMSCHEMA_RULES", "rules.yaml")
	t.Setenv("FORMSCHEMA_LOG_FORMAT", "json")
	t.Setenv("FORMSCHEMA_CACHE_TTL", "1m")
	t.Setenv("FORMSCHEMA_WATCH", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.SchemaPath != "form.yaml" || cfg.RulesPath != "rules.yaml" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.LogFormat != "json" || cfg.CacheTTL != time.Minute || !cfg.Watch {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Addr: ":8080", LogFormat: "text"}
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "no addr", mutate: func(c *Config) { c.Addr = "" }, wantErr: true},
		{name: "negative ttl", mutate: func(c *Config) { c.CacheTTL = -time.Second }, wantErr: true},
		{name: "rules without schema", mutate: func(c *Config) { c.RulesPath = "rules.yaml" }, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
