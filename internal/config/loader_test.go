package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/wastewise/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"WASTEWISE_CONFIG",
	"WASTEWISE_ADDR",
	"WASTEWISE_STORAGE_BACKEND",
	"WASTEWISE_SQLITE_PATH",
	"WASTEWISE_QUEUE_SIZE",
	"WASTEWISE_WORKER_COUNT",
	"WASTEWISE_DEDUPE_SIZE",
	"WASTEWISE_REPOSITORY",
	"WASTEWISE_BACKEND_URL",
	"WASTEWISE_RATE_LIMIT_RPS",
	"WASTEWISE_CORS_ORIGINS",
	"WASTEWISE_TIMEZONE",
	"WASTEWISE_METRICS_ENABLED",
}

func clearConfigEnvVars() {
	for _, v := range configEnvVars {
		_ = os.Unsetenv(v)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wastewise.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const fileConfig = `
addr: ":9090"
storage_backend: memory
queue_size: 64
worker_count: 4
timezone: UTC
employee_counts:
  "24": 10
  "1": 2
cors_origins:
  - http://localhost:5173
`

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load()

			convey.Convey("Then the defaults should be returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "wastewise.db")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("WASTEWISE_ADDR", ":7070")
			_ = os.Setenv("WASTEWISE_STORAGE_BACKEND", "memory")
			_ = os.Setenv("WASTEWISE_QUEUE_SIZE", "32")
			_ = os.Setenv("WASTEWISE_RATE_LIMIT_RPS", "2.5")
			_ = os.Setenv("WASTEWISE_CORS_ORIGINS", "http://a.example,http://b.example")
			_ = os.Setenv("WASTEWISE_METRICS_ENABLED", "false")

			cfg, err := config.Load()

			convey.Convey("Then env should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.StorageBackend, convey.ShouldEqual, "memory")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 32)
				convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 2.5)
				convey.So(cfg.Origins(), convey.ShouldResemble, []string{"http://a.example", "http://b.example"})
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			_ = os.Setenv("WASTEWISE_CONFIG", createTempConfigFile(t, fileConfig))

			cfg, err := config.Load()

			convey.Convey("Then file values should be applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.Origins(), convey.ShouldResemble, []string{"http://localhost:5173"})
				counts, err := cfg.HeadCounts()
				convey.So(err, convey.ShouldBeNil)
				convey.So(counts[24], convey.ShouldEqual, 10)
				convey.So(counts[1], convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When both a file and env are present", func() {
			_ = os.Setenv("WASTEWISE_CONFIG", createTempConfigFile(t, fileConfig))
			_ = os.Setenv("WASTEWISE_WORKER_COUNT", "8")

			cfg, err := config.Load()

			convey.Convey("Then env should win over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("WASTEWISE_CONFIG", "/non/existent/wastewise.yaml")

			_, err := config.Load()

			convey.Convey("Then a load error should be returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an env value cannot be parsed", func() {
			_ = os.Setenv("WASTEWISE_QUEUE_SIZE", "lots")

			_, err := config.Load()

			convey.Convey("Then a load error should be returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the remote repository has no backend url", func() {
			_ = os.Setenv("WASTEWISE_REPOSITORY", "remote")

			_, err := config.Load()

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
