package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.AssumedDistanceKm != 10 || cfg.SearchTicks != 10 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SearchTick != 300*time.Millisecond || cfg.AssignDelay != 2*time.Second || cfg.TripDwell != 10*time.Second {
		t.Fatalf("unexpected timings %+v", cfg)
	}
}

func TestLoadServerConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ROLO_ASSUMED_DISTANCE_KM", "12.5")
	t.Setenv("TRIP_DWELL", "1s")
	t.Setenv("PAYMENT_CURRENCY", "USD")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MIGRATE", "TRUE")
	t.Setenv("PG_DSN", "postgres://localhost/rolo")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":9090" || len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected %+v", cfg)
	}
	if cfg.AssumedDistanceKm != 12.5 || cfg.TripDwell != time.Second || cfg.PaymentCurrency != "usd" {
		t.Fatalf("unexpected %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || !cfg.RunMigrations {
		t.Fatalf("unexpected %+v", cfg)
	}
}

func TestLoadServerConfigCollectsErrors(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "soon")
	t.Setenv("SEARCH_TICKS", "0")
	t.Setenv("ROLO_ASSUMED_DISTANCE_KM", "far")

	_, err := LoadServerConfig()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"HTTP_READ_TIMEOUT", "SEARCH_TICKS", "ROLO_ASSUMED_DISTANCE_KM"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error %q does not mention %s", err, key)
		}
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("ROLO_TEST_A=from-file\nROLO_TEST_B=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ROLO_TEST_A", "from-env")
	t.Setenv("ROLO_TEST_B", "")
	os.Unsetenv("ROLO_TEST_B")

	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}
	if os.Getenv("ROLO_TEST_A") != "from-env" || os.Getenv("ROLO_TEST_B") != "from-file" {
		t.Fatalf("A=%q B=%q", os.Getenv("ROLO_TEST_A"), os.Getenv("ROLO_TEST_B"))
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}

func TestLoadConsumerConfig(t *testing.T) {
	t.Setenv("KAFKA_GROUP", "g1")
	cfg, err := LoadConsumerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.KafkaGroup != "g1" || cfg.KafkaTopic != "ride-events" || cfg.MetricsAddr != ":2112" {
		t.Fatalf("unexpected %+v", cfg)
	}
}
