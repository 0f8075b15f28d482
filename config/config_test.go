package config

import (
	"os"
	"testing"
)

func TestLoadUsesFallbacksWhenUnset(t *testing.T) {
	unset(t, "ZAPPAI_OPTIMIZER_TOP_K")

	cfg := Load()
	if cfg.OptimizerTopK != 5 {
		t.Fatalf("OptimizerTopK = %d, want 5", cfg.OptimizerTopK)
	}
	if cfg.OptimizerHorizonMonths != 24 {
		t.Fatalf("OptimizerHorizonMonths = %d, want 24", cfg.OptimizerHorizonMonths)
	}
}

func TestLoadHonorsOverrides(t *testing.T) {
	t.Setenv("ZAPPAI_OPTIMIZER_TOP_K", "3")
	t.Setenv("ZAPPAI_YIELD_TEST_FRACTION", "0.3")

	cfg := Load()
	if cfg.OptimizerTopK != 3 {
		t.Fatalf("OptimizerTopK = %d, want 3", cfg.OptimizerTopK)
	}
	if cfg.YieldTestFraction != 0.3 {
		t.Fatalf("YieldTestFraction = %v, want 0.3", cfg.YieldTestFraction)
	}
}

func TestGetEnvIntFallsBackOnUnparseableValue(t *testing.T) {
	t.Setenv("ZAPPAI_TEST_INT", "not-an-int")
	if got := GetEnvInt("ZAPPAI_TEST_INT", 7); got != 7 {
		t.Fatalf("GetEnvInt = %d, want 7", got)
	}
}

func TestGetEnvBoolRecognizesTruthyForms(t *testing.T) {
	for _, v := range []string{"true", "TRUE", "1", "yes"} {
		t.Setenv("ZAPPAI_TEST_BOOL", v)
		if !GetEnvBool("ZAPPAI_TEST_BOOL", false) {
			t.Fatalf("GetEnvBool(%q) = false, want true", v)
		}
	}
}

// unset clears an environment variable for the duration of the test,
// restoring whatever was there before once it completes.
func unset(t *testing.T, key string) {
	t.Helper()
	previous, had := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unsetting %s: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			os.Setenv(key, previous)
		}
	})
}
