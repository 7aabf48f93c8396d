package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/wastewise/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.StorageBackend, convey.ShouldEqual, "sqlite")
			convey.So(cfg.Repository, convey.ShouldEqual, "local")
			convey.So(cfg.DefaultEmployeeCount, convey.ShouldEqual, 5)
			convey.So(cfg.BackendTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty addr", func(c *config.Config) { c.Addr = " " }},
		{"zero queue", func(c *config.Config) { c.QueueSize = 0 }},
		{"zero workers", func(c *config.Config) { c.WorkerCount = 0 }},
		{"negative dedupe", func(c *config.Config) { c.DedupeSize = -1 }},
		{"zero head count", func(c *config.Config) { c.DefaultEmployeeCount = 0 }},
		{"negative retries", func(c *config.Config) { c.BackendRetryMax = -1 }},
		{"negative rate", func(c *config.Config) { c.RateLimitRPS = -1 }},
		{"zero metrics refresh", func(c *config.Config) { c.MetricsRefreshMS = 0 }},
		{"unknown level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"unknown format", func(c *config.Config) { c.LogFormat = "xml" }},
		{"unknown backend", func(c *config.Config) { c.StorageBackend = "redis" }},
		{"sqlite without path", func(c *config.Config) { c.SQLitePath = "" }},
		{"unknown repository", func(c *config.Config) { c.Repository = "graphql" }},
		{"remote without url", func(c *config.Config) { c.Repository = "remote" }},
		{"remote with mirror", func(c *config.Config) {
			c.Repository, c.BackendURL, c.MirrorURL = "remote", "http://a", "http://b"
		}},
		{"bad timezone", func(c *config.Config) { c.Timezone = "Mars/Olympus" }},
		{"bad head count key", func(c *config.Config) { c.EmployeeCounts = map[string]int{"acme": 3} }},
		{"bad head count value", func(c *config.Config) { c.EmployeeCounts = map[string]int{"24": 0} }},
	}

	convey.Convey("Given invalid settings", t, func() {
		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		}
	})
}

func TestConfig_Helpers(t *testing.T) {
	convey.Convey("Given a config with head counts, origins and a zone", t, func() {
		cfg := config.New()
		cfg.EmployeeCounts = map[string]int{"24": 10, " 21 ": 3}
		cfg.CORSOrigins = []string{"http://a.example, http://b.example", "", "*"}
		cfg.Timezone = "Europe/Amsterdam"

		convey.Convey("Then head counts should be keyed by business id", func() {
			counts, err := cfg.HeadCounts()
			convey.So(err, convey.ShouldBeNil)
			convey.So(counts[24], convey.ShouldEqual, 10)
			convey.So(counts[21], convey.ShouldEqual, 3)
		})

		convey.Convey("Then origins should be split and trimmed", func() {
			convey.So(cfg.Origins(), convey.ShouldResemble, []string{"http://a.example", "http://b.example", "*"})
		})

		convey.Convey("Then the zone should resolve", func() {
			loc, err := cfg.Location()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc.String(), convey.ShouldEqual, "Europe/Amsterdam")
		})

		convey.Convey("Then Local should map to the host zone", func() {
			cfg.Timezone = ""
			loc, err := cfg.Location()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc, convey.ShouldEqual, time.Local)
		})
	})
}
