package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/fraudguard/fraud-pipeline/internal/ingestion"
	"github.com/fraudguard/fraud-pipeline/internal/pipeline"
	"github.com/fraudguard/fraud-pipeline/internal/store"
	"github.com/fraudguard/fraud-pipeline/internal/store/model"
	"github.com/fraudguard/fraud-pipeline/pkg/dataset"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func setenv(key, value string) {
	old, found := os.LookupEnv(key)
	DeferCleanup(func() {
		if found {
			_ = os.Setenv(key, old)
			return
		}
		_ = os.Unsetenv(key)
	})
	Expect(os.Setenv(key, value)).To(Succeed())
}

// captureStdout returns what run writes to the process stdout.
func captureStdout(run func()) string {
	r, w, err := os.Pipe()
	Expect(err).To(BeNil())

	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	out := make(chan string)
	go func() {
		b, _ := io.ReadAll(r)
		out <- string(b)
	}()

	run()
	os.Stdout = stdout
	Expect(w.Close()).To(Succeed())
	return <-out
}

var _ = Describe("Cli", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		setenv("ARTIFACT_DIR", dir)
		setenv("PIPELINE_NAME", "cliTest")
		setenv("SPLIT_RATIO", "0.25")
	})

	Context("env file", func() {
		It("ignores a missing file", func() {
			Expect(loadEnvFile(filepath.Join(dir, "missing.env"))).To(Succeed())
		})

		It("does not override the environment", func() {
			envFile := filepath.Join(dir, ".env")
			Expect(os.WriteFile(envFile, []byte("PIPELINE_NAME=fromFile\nFRAUD_PIPELINE_CLI_TEST=loaded\n"), 0644)).To(Succeed())
			DeferCleanup(os.Unsetenv, "FRAUD_PIPELINE_CLI_TEST")

			Expect(loadEnvFile(envFile)).To(Succeed())
			Expect(os.Getenv("PIPELINE_NAME")).To(Equal("cliTest"))
			Expect(os.Getenv("FRAUD_PIPELINE_CLI_TEST")).To(Equal("loaded"))
		})
	})

	Context("options", func() {
		It("validates the history flags", func() {
			o := DefaultHistoryOptions()
			Expect(o.Validate(nil)).To(Succeed())

			o.State = "Paused"
			Expect(o.Validate(nil)).ToNot(Succeed())

			o = DefaultHistoryOptions()
			o.Output = "xml"
			Expect(o.Validate(nil)).ToNot(Succeed())

			o = DefaultHistoryOptions()
			o.Limit = -1
			Expect(o.Validate(nil)).ToNot(Succeed())
		})

		It("requires both validation files", func() {
			o := DefaultValidateOptions()
			o.TrainFile = "train.csv"
			Expect(o.Validate(nil)).ToNot(Succeed())

			o.TestFile = "test.csv"
			Expect(o.Validate(nil)).To(Succeed())
		})
	})

	Context("commands", func() {
		It("validates files against the schema", func() {
			schema := filepath.Join(dir, "schema.yaml")
			Expect(os.WriteFile(schema, []byte("columns:\n  - name: age\n    type: int\nnumerical_columns: [age]\n"), 0644)).To(Succeed())
			setenv("SCHEMA_FILE", schema)

			ds := dataset.New([]string{"age"}, dataset.Row{dataset.Value("31")}, dataset.Row{dataset.Value("47")})
			train, test := filepath.Join(dir, "train.csv"), filepath.Join(dir, "test.csv")
			Expect(ds.WriteCSV(train)).To(Succeed())
			Expect(ds.WriteCSV(test)).To(Succeed())
			report := filepath.Join(dir, "report.yaml")

			cmd := NewCmdValidate()
			cmd.SetArgs([]string{"--train", train, "--test", test, "--report", report, "--env-file", "", "-o", "json"})
			out := captureStdout(func() {
				Expect(cmd.ExecuteContext(context.TODO())).To(Succeed())
			})
			Expect(report).To(BeAnExistingFile())

			var result map[string]any
			Expect(json.Unmarshal([]byte(out), &result)).To(Succeed())
			Expect(result).To(HaveKeyWithValue("validation_status", true))
			Expect(result).To(HaveKeyWithValue("drift_report_path", report))

			missing := dataset.New([]string{"years"}, dataset.Row{dataset.Value("31")})
			Expect(missing.WriteCSV(test)).To(Succeed())
			cmd = NewCmdValidate()
			cmd.SetArgs([]string{"--train", train, "--test", test, "--env-file", ""})
			Expect(cmd.ExecuteContext(context.TODO())).ToNot(Succeed())
		})

		It("lists the recorded runs", func() {
			db, err := store.InitRegistry(filepath.Join(dir, "runs.db"))
			Expect(err).To(BeNil())
			registry := store.NewStore(db)
			_, err = registry.Run().Create(context.TODO(), model.Run{ID: uuid.New(), Pipeline: "cliTest", State: "Succeeded"})
			Expect(err).To(BeNil())
			Expect(registry.Close()).To(Succeed())

			for _, output := range []string{"table", "yaml"} {
				cmd := NewCmdHistory()
				cmd.SetArgs([]string{"--state", "Succeeded", "-o", output, "--env-file", ""})
				Expect(cmd.ExecuteContext(context.TODO())).To(Succeed())
			}

			cmd := NewCmdHistory()
			cmd.SetArgs([]string{"--state", "Succeeded", "-o", "json", "--env-file", ""})
			out := captureStdout(func() {
				Expect(cmd.ExecuteContext(context.TODO())).To(Succeed())
			})
			var runs []map[string]any
			Expect(json.Unmarshal([]byte(out), &runs)).To(Succeed())
			Expect(runs).To(HaveLen(1))
			Expect(runs[0]).To(HaveKeyWithValue("State", "Succeeded"))
		})

		It("refuses to run without database settings", func() {
			setenv("DB_TYPE", "mysql")
			for _, key := range []string{"HOST", "DATABASE_NAME"} {
				setenv(key, "")
				Expect(os.Unsetenv(key)).To(Succeed())
			}

			cmd := NewCmdRun()
			cmd.SetArgs([]string{"--env-file", ""})
			Expect(cmd.ExecuteContext(context.TODO())).ToNot(Succeed())
		})

		It("records a run that cannot reach the source database", func() {
			for key, value := range map[string]string{
				"DB_TYPE":       "mysql",
				"HOST":          "127.0.0.1",
				"DB_PORT":       "1",
				"DATABASE_NAME": "fraud",
				"USER":          "fraud",
				"PASSWORD":      "secret",
				"METRICS_FILE":  filepath.Join(dir, "metrics.prom"),
			} {
				setenv(key, value)
			}

			cmd := NewCmdRun()
			cmd.SetArgs([]string{"--env-file", ""})
			err := cmd.ExecuteContext(context.TODO())
			Expect(err).ToNot(BeNil())

			var stageErr *pipeline.StageError
			Expect(errors.As(err, &stageErr)).To(BeTrue())
			Expect(stageErr.Stage).To(Equal(ingestion.StageName))
			var ingestionErr *ingestion.IngestionError
			Expect(errors.As(err, &ingestionErr)).To(BeTrue())
			Expect(ingestionErr.Step).To(Equal(ingestion.StepExport))
			var unavailable *store.ErrSourceUnavailable
			Expect(errors.As(err, &unavailable)).To(BeTrue())

			db, err := store.InitRegistry(filepath.Join(dir, "runs.db"))
			Expect(err).To(BeNil())
			registry := store.NewStore(db)
			defer registry.Close()

			runs, err := registry.Run().List(context.TODO(), store.NewRunQueryFilter().ByPipeline("cliTest"))
			Expect(err).To(BeNil())
			Expect(runs).To(HaveLen(1))
			Expect(runs[0].State).To(Equal(pipeline.Failed.String()))
			Expect(runs[0].FinishedAt).ToNot(BeNil())
			Expect(runs[0].Message).To(ContainSubstring("unavailable"))

			content, err := os.ReadFile(filepath.Join(dir, "metrics.prom"))
			Expect(err).To(BeNil())
			Expect(string(content)).To(ContainSubstring(`fraud_pipeline_runs_total{state="Failed"}`))
		})
	})
})
