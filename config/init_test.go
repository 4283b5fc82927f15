package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	var c Config
	c.Server.Address = "0.0.0.0"
	c.Server.HTTPPort = "8080"
	c.Auth.JWTSecret = "s3cret"
	return c
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok in-memory", func(*Config) {}, ""},
		{"default secret", func(c *Config) { c.Auth.JWTSecret = "CHANGE_ME" }, "auth.jwt_secret"},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = " " }, "auth.jwt_secret"},
		{"empty port", func(c *Config) { c.Server.HTTPPort = "" }, "server.http_port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "not supported"},
		{"driver without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "database.dsn"},
		{"sqlite", func(c *Config) { c.Database.Driver = "sqlite"; c.Database.DSN = "/tmp/v.db" }, ""},
		{"redis without address", func(c *Config) { c.Redis.Enabled = true }, "redis.address"},
		{"negative ttl", func(c *Config) { c.Invites.DefaultTTL = -time.Second }, "default_ttl"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)
			err := validate(&c)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error=%v, want containing %q", err, tc.wantErr)
			}
		})
	}
}
