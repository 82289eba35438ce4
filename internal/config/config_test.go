package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/resumatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.EmbeddingProvider, convey.ShouldEqual, config.EmbeddingHashing)
			convey.So(cfg.LLMTemperature, convey.ShouldEqual, 0.7)
			convey.So(cfg.LLMMaxTokens, convey.ShouldEqual, 2000)
			convey.So(cfg.LLMEnabled(), convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with contradicting settings", t, func() {
		cases := map[string]func(*config.Config){
			"unknown queue":     func(c *config.Config) { c.QueueBackend = "kafka" },
			"amqp without url":  func(c *config.Config) { c.QueueBackend = config.QueueAMQP },
			"zero queue size":   func(c *config.Config) { c.QueueSize = 0 },
			"unknown store":     func(c *config.Config) { c.StoreBackend = "sqlite" },
			"unknown embedding": func(c *config.Config) { c.EmbeddingProvider = "bert" },
			"zero dimension":    func(c *config.Config) { c.EmbeddingDimension = 0 },
			"unknown llm":       func(c *config.Config) { c.LLMProvider = "llama" },
			"zero workers":      func(c *config.Config) { c.WorkerCount = 0 },
			"zero attempts":     func(c *config.Config) { c.MaxAttempts = 0 },
			"zero llm timeout":  func(c *config.Config) { c.LLMTimeoutMS = 0 },
			"empty amqp queue":  func(c *config.Config) { c.QueueBackend, c.AMQPURL, c.AMQPQueue = config.QueueAMQP, "amqp://x", "" },
			"mysql without dsn": func(c *config.Config) { c.StoreBackend = config.StoreMySQL },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(name, convey.ShouldNotBeEmpty)
		}
	})
}

func TestConfig_CORSOrigins(t *testing.T) {
	convey.Convey("Given a comma separated origin list", t, func() {
		cfg := config.New()
		convey.So(cfg.CORSOrigins(), convey.ShouldBeEmpty)

		cfg.CORSAllowOrigins = " http://a.test ,, http://b.test"
		convey.So(cfg.CORSOrigins(), convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
	})
}
