package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/weris/internal/cli"
	"github.com/okian/weris/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func execute(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	root := cli.NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func fixture(t *testing.T) (dir string, flags []string) {
	t.Helper()
	dir = t.TempDir()
	files := map[string]string{
		"symptom_data.json": `{"fever": 1, "cough": 0, "week": 3}`,
		"data1.csv":         "fever,cough\n1,1\n",
		"data2.csv":         "fever,cough\n1,1\n",
		"data3.csv":         "fever,cough\n1,1\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	flags = []string{
		"--intake-path", filepath.Join(dir, "symptom_data.json"),
		"--reference", filepath.Join(dir, "data1.csv") + "," + filepath.Join(dir, "data2.csv") + "," + filepath.Join(dir, "data3.csv"),
		"--model", filepath.Join(dir, "knn_model.json"),
		"--sink-path", filepath.Join(dir, "stress_result.json"),
		"--history-db", filepath.Join(dir, "history.db"),
		"--metrics-file", filepath.Join(dir, "weris.prom"),
		"--log-format", "json",
	}
	return dir, flags
}

func TestRunCommand(t *testing.T) {
	Convey("Given a working directory with intake and reference files", t, func() {
		dir, flags := fixture(t)

		Convey("When weris run is executed", func() {
			stdout, stderr, err := execute(append([]string{"run"}, flags...)...)

			Convey("Then the report is printed and all outputs exist", func() {
				So(err, ShouldBeNil)
				So(stdout, ShouldContainSubstring, "week:         3")
				So(stdout, ShouldContainSubstring, "cough=false fever=true")
				So(stdout, ShouldContainSubstring, "stress level: 1.60")
				So(stdout, ShouldContainSubstring, "prediction:   A")
				So(stderr, ShouldContainSubstring, `"msg":"run completed"`)

				for _, name := range []string{"stress_result.json", "knn_model.json", "history.db", "weris.prom"} {
					_, statErr := os.Stat(filepath.Join(dir, name))
					So(statErr, ShouldBeNil)
				}

				prom, readErr := os.ReadFile(filepath.Join(dir, "weris.prom"))
				So(readErr, ShouldBeNil)
				So(string(prom), ShouldContainSubstring, "weris_stress_runs_total")
			})

			Convey("And the run shows up in history", func() {
				out, _, histErr := execute(append([]string{"history", "-n", "5"}, flags...)...)
				So(histErr, ShouldBeNil)
				So(out, ShouldContainSubstring, "1 of 1 runs")
				So(out, ShouldContainSubstring, "1.60")
			})
		})

		Convey("When the bare command is executed", func() {
			stdout, _, err := execute(flags...)
			So(err, ShouldBeNil)
			So(stdout, ShouldContainSubstring, "stress level: 1.60")
		})

		Convey("When the week is invalid", func() {
			So(os.WriteFile(filepath.Join(dir, "symptom_data.json"), []byte(`{"fever": 1}`), 0o644), ShouldBeNil)
			_, _, err := execute(append([]string{"run"}, flags...)...)

			So(err, ShouldNotBeNil)
			_, statErr := os.Stat(filepath.Join(dir, "stress_result.json"))
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})
	})

	Convey("Given an unknown reference mode", t, func() {
		_, flags := fixture(t)
		_, _, err := execute(append([]string{"run", "--reference-mode", "lazy"}, flags...)...)
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})
}

func TestModelCommand(t *testing.T) {
	Convey("Given no persisted model", t, func() {
		dir, flags := fixture(t)

		Convey("When model show is executed", func() {
			stdout, _, err := execute(append([]string{"model", "show"}, flags...)...)

			Convey("Then the bootstrap model is trained and printed", func() {
				So(err, ShouldBeNil)
				So(stdout, ShouldContainSubstring, "k=1, 6 samples")
				So(stdout, ShouldContainSubstring, `"version": 1`)
				_, statErr := os.Stat(filepath.Join(dir, "knn_model.json"))
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When a corrupt blob is retrained", func() {
			So(os.WriteFile(filepath.Join(dir, "knn_model.json"), []byte("garbage"), 0o644), ShouldBeNil)

			_, _, showErr := execute(append([]string{"model", "show"}, flags...)...)
			So(showErr, ShouldNotBeNil)

			_, _, trainErr := execute(append([]string{"model", "train"}, flags...)...)
			So(trainErr, ShouldBeNil)

			_, _, showErr = execute(append([]string{"model", "show"}, flags...)...)
			So(showErr, ShouldBeNil)
		})
	})
}

func TestHistoryCommand(t *testing.T) {
	Convey("Given history is disabled", t, func() {
		_, _, err := execute("history")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "history is disabled")
	})
}

func TestScheduleCommand(t *testing.T) {
	Convey("Given a working directory and an hourly schedule", t, func() {
		dir, flags := fixture(t)
		args := append([]string{"schedule", "--now", "--schedule", "@every 1h", "--timezone", "UTC"}, flags...)

		Convey("When the scheduler runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			var stderr bytes.Buffer
			root := cli.NewRootCommand()
			root.SetArgs(args)
			root.SetErr(&stderr)
			err := root.ExecuteContext(ctx)

			Convey("Then the immediate run delivers a result and the command exits cleanly", func() {
				So(err, ShouldBeNil)
				_, statErr := os.Stat(filepath.Join(dir, "stress_result.json"))
				So(statErr, ShouldBeNil)
				So(stderr.String(), ShouldContainSubstring, "scheduled run completed")
				So(stderr.String(), ShouldContainSubstring, "scheduler stopped")
			})
		})

		Convey("When the schedule cannot be parsed", func() {
			_, _, err := execute(append([]string{"schedule", "--schedule", "whenever"}, flags...)...)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestEnvFileFlag(t *testing.T) {
	Convey("Given an explicit env file that does not exist", t, func() {
		_, _, err := execute("run", "--env-file", filepath.Join(t.TempDir(), "missing.env"))
		So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
	})

	Convey("Given an env file that selects an unknown intake source", t, func() {
		path := filepath.Join(t.TempDir(), "weris.env")
		So(os.WriteFile(path, []byte("WERIS_INTAKE_SOURCE=carrier-pigeon\n"), 0o644), ShouldBeNil)
		defer func() { _ = os.Unsetenv("WERIS_INTAKE_SOURCE") }()

		_, _, err := execute("run", "--env-file", path)
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})
}
