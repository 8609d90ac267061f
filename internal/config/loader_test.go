package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/weris/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			// Clear any existing environment variables
			clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.IntakeSource, convey.ShouldEqual, "file")
				convey.So(cfg.ReferenceMode, convey.ShouldEqual, "eager")
				convey.So(cfg.ChunkSize, convey.ShouldEqual, 1000)
				convey.So(cfg.RemoteTimeoutMS, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("WERIS_INTAKE_SOURCE", "remote")
			_ = os.Setenv("WERIS_INTAKE_URL", "http://symptoms.local/latest")
			_ = os.Setenv("WERIS_REFERENCE_MODE", "streaming")
			_ = os.Setenv("WERIS_REFERENCE_PATHS", "a.csv, b.csv")
			_ = os.Setenv("WERIS_CHUNK_SIZE", "250")
			_ = os.Setenv("WERIS_REMOTE_TIMEOUT_MS", "500")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.IntakeSource, convey.ShouldEqual, "remote")
				convey.So(cfg.IntakeURL, convey.ShouldEqual, "http://symptoms.local/latest")
				convey.So(cfg.ReferenceMode, convey.ShouldEqual, "streaming")
				convey.So(cfg.ReferencePaths, convey.ShouldResemble, []string{"a.csv", "b.csv"})
				convey.So(cfg.ChunkSize, convey.ShouldEqual, 250)
				convey.So(cfg.RemoteTimeoutMS, convey.ShouldEqual, 500)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# Streaming run against a results service
reference_mode: streaming
reference_paths:
  - tables/one.csv
  - tables/two.csv
sink_target: remote
sink_url: "http://results.local/stress"  # Inline comment
history_db: runs.db
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WERIS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.ReferenceMode, convey.ShouldEqual, "streaming")
				convey.So(cfg.ReferencePaths, convey.ShouldResemble, []string{"tables/one.csv", "tables/two.csv"})
				convey.So(cfg.SinkTarget, convey.ShouldEqual, "remote")
				convey.So(cfg.SinkURL, convey.ShouldEqual, "http://results.local/stress")
				convey.So(cfg.HistoryDB, convey.ShouldEqual, "runs.db")
				convey.So(cfg.ModelPath, convey.ShouldEqual, "knn_model.json") // From defaults
			})
		})

		convey.Convey("When loading config with an explicit path and environment variables", func() {
			yamlContent := `
chunk_size: 10
model_path: models/knn.json
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WERIS_CHUNK_SIZE", "20") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ChunkSize, convey.ShouldEqual, 20)                // Overridden by env
				convey.So(cfg.ModelPath, convey.ShouldEqual, "models/knn.json") // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("WERIS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("WERIS_CHUNK_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown mode", func() {
			_ = os.Setenv("WERIS_REFERENCE_MODE", "lazy")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "reference_mode")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a zero chunk size", func() {
			_ = os.Setenv("WERIS_CHUNK_SIZE", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestLoadEnvFile(t *testing.T) {
	convey.Convey("Given a dotenv file", t, func() {
		path := createTempConfigFile("WERIS_CHUNK_SIZE=42\nWERIS_INTAKE_SOURCE=remote\n")
		defer func() { _ = os.Remove(path) }()
		defer clearConfigEnvVars()

		convey.Convey("When it is loaded while one variable is already set", func() {
			_ = os.Setenv("WERIS_INTAKE_SOURCE", "file")
			convey.So(config.LoadEnvFile(path, true), convey.ShouldBeNil)

			cfg, err := config.Load(context.Background(), "")

			convey.Convey("Then only unset variables are taken from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ChunkSize, convey.ShouldEqual, 42)
				convey.So(cfg.IntakeSource, convey.ShouldEqual, "file")
			})
		})
	})

	convey.Convey("Given a missing dotenv file", t, func() {
		convey.So(config.LoadEnvFile("/non/existent/.env", false), convey.ShouldBeNil)
		convey.So(errors.Is(config.LoadEnvFile("/non/existent/.env", true), config.ErrLoadConfig), convey.ShouldBeTrue)
		convey.So(config.LoadEnvFile("", true), convey.ShouldBeNil)
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"WERIS_CONFIG",
		"WERIS_INTAKE_SOURCE",
		"WERIS_INTAKE_URL",
		"WERIS_REFERENCE_MODE",
		"WERIS_REFERENCE_PATHS",
		"WERIS_CHUNK_SIZE",
		"WERIS_REMOTE_TIMEOUT_MS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "weris-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
