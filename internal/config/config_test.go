package config_test

import (
	"runtime"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/kmarek/evalarena/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.StorePath, convey.ShouldEqual, "./store")
			convey.So(cfg.DatabasePath, convey.ShouldEqual, "./evalarena.db")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.EvalTimeoutMS, convey.ShouldEqual, 60_000)
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 1000)
		})
	})
}
