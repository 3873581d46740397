package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.OrderSvcAddr != ":8082" {
		t.Fatalf("OrderSvcAddr=%q", cfg.OrderSvcAddr)
	}
	if cfg.PostgresDSN == "" || cfg.RedisAddr == "" {
		t.Fatalf("empty defaults: %+v", cfg)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ORDER_SERVICE_ADDR", ":9999")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg := Load()
	if cfg.OrderSvcAddr != ":9999" {
		t.Fatalf("OrderSvcAddr=%q, want :9999", cfg.OrderSvcAddr)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("RedisAddr=%q", cfg.RedisAddr)
	}
}
