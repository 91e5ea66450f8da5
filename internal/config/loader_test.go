package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/kmarek/evalarena/internal/config"
)

var configEnvVars = []string{
	"ARENA_CONFIG",
	"ARENA_LOG_LEVEL",
	"ARENA_ADDR",
	"ARENA_STORE_PATH",
	"ARENA_DATABASE_PATH",
	"ARENA_QUEUE_SIZE",
	"ARENA_WORKER_COUNT",
	"ARENA_DEDUPE_SIZE",
	"ARENA_EVAL_TIMEOUT_MS",
	"ARENA_MAX_LEADERBOARD_LIMIT",
}

func clearConfigEnvVars() {
	for _, key := range configEnvVars {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ARENA_ADDR", ":8080")
			_ = os.Setenv("ARENA_QUEUE_SIZE", "5000")
			_ = os.Setenv("ARENA_WORKER_COUNT", "16")
			_ = os.Setenv("ARENA_EVAL_TIMEOUT_MS", "30000")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 5000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.EvalTimeoutMS, convey.ShouldEqual, 30000)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":7070"
store_path: "/var/lib/evalarena/store"
database_path: "/var/lib/evalarena/arena.db"
queue_size: 2000
worker_count: 8
`
			tmpFile := createTempConfigFile(t, yamlContent)

			_ = os.Setenv("ARENA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.StorePath, convey.ShouldEqual, "/var/lib/evalarena/store")
				convey.So(cfg.DatabasePath, convey.ShouldEqual, "/var/lib/evalarena/arena.db")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 2000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":7070"
queue_size: 2000
worker_count: 8
`
			tmpFile := createTempConfigFile(t, yamlContent)

			_ = os.Setenv("ARENA_CONFIG", tmpFile)
			_ = os.Setenv("ARENA_ADDR", ":8080")
			_ = os.Setenv("ARENA_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 2000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("ARENA_CONFIG", "/nonexistent/config.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err, convey.ShouldWrap, config.ErrLoad)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a required field is blanked out", func() {
			_ = os.Setenv("ARENA_ADDR", " ")
			defer clearConfigEnvVars()

			convey.Convey("Then whitespace still counts as set", func() {
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, " ")
			})
		})
	})
}
