package validation_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fraudguard/fraud-pipeline/internal/artifact"
	"github.com/fraudguard/fraud-pipeline/internal/validation"
	"github.com/fraudguard/fraud-pipeline/pkg/dataset"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const claimsSchema = `columns:
  - name: policy_number
    type: int64
  - name: total_claim_amount
    type: float
  - name: policy_state
    type: object
  - name: fraud_reported
    type: object
numerical_columns: [total_claim_amount]
categorical_columns: [policy_state, fraud_reported]
`

var states = []string{"OH", "IN", "IL"}

type claimFn func(i int) []string

func claim(i int) []string {
	fraud := "N"
	if i%5 == 0 {
		fraud = "Y"
	}
	return []string{
		fmt.Sprintf("%d", 100000+i),
		fmt.Sprintf("%d", i*10),
		states[i%3],
		fraud,
	}
}

var claimColumns = []string{"policy_number", "total_claim_amount", "policy_state", "fraud_reported"}

func writeClaims(path string, columns []string, indices []int, fn claimFn) {
	ds := dataset.New(columns)
	for _, i := range indices {
		values := fn(i)
		row := make(dataset.Row, 0, len(columns))
		for _, v := range values[:len(columns)] {
			row = append(row, dataset.Value(v))
		}
		ds.Rows = append(ds.Rows, row)
	}
	Expect(ds.WriteCSV(path)).To(Succeed())
}

// split40 mirrors a 25% split over 40 rows.
func split40() (train, test []int) {
	for i := range 40 {
		if i%4 == 0 {
			test = append(test, i)
		} else {
			train = append(train, i)
		}
	}
	return train, test
}

var _ = Describe("Data validation stage", func() {
	var (
		dir    string
		layout artifact.Layout
		cfg    validation.Config
		in     artifact.Ingestion
	)

	writeSchema := func(content string) {
		Expect(os.WriteFile(cfg.SchemaFilePath, []byte(content), 0644)).To(Succeed())
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		layout = artifact.NewLayout(dir, time.Now())
		cfg = validation.NewConfig(filepath.Join(dir, "schema.yaml"), 0.05, 0.1, false, layout)
		in = artifact.Ingestion{TrainedFilePath: layout.TrainFile(), TestFilePath: layout.TestFile()}
		writeSchema(claimsSchema)
	})

	Context("schema checks", func() {
		It("passes when both files match the schema", func() {
			train, test := split40()
			writeClaims(in.TrainedFilePath, claimColumns, train, claim)
			writeClaims(in.TestFilePath, claimColumns, test, claim)

			result, err := validation.NewStage(cfg).Run(context.TODO(), in)
			Expect(err).To(BeNil())
			Expect(result.ValidationStatus).To(BeTrue())
			Expect(result.Message).To(BeEmpty())
			Expect(result.DriftReportPath).To(Equal(layout.DriftReportFile()))
			Expect(result.Verify()).To(Succeed())
		})

		It("fails naming a missing column", func() {
			train, test := split40()
			writeClaims(in.TrainedFilePath, claimColumns[:3], train, claim)
			writeClaims(in.TestFilePath, claimColumns[:3], test, claim)

			result, err := validation.NewStage(cfg).Run(context.TODO(), in)
			Expect(err).To(BeNil())
			Expect(result.ValidationStatus).To(BeFalse())
			Expect(result.Message).To(ContainSubstring("fraud_reported"))
			Expect(result.Message).To(ContainSubstring("[MISSING_COLUMN] train: column fraud_reported is missing"))
			Expect(result.Message).To(ContainSubstring("[MISSING_COLUMN] test: column fraud_reported is missing"))
			Expect(result.DriftReportPath).To(BeEmpty())

			_, statErr := os.Stat(layout.DriftReportFile())
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})

		It("enumerates every issue", func() {
			train, test := split40()
			writeClaims(in.TrainedFilePath, claimColumns, train, claim)
			writeClaims(in.TestFilePath, []string{"policy_number", "total_claim_amount", "policy_state", "fraud_reported", "insured_zip"}, test, func(i int) []string {
				return []string{fmt.Sprintf("P-%d", i), "n/a", states[i%3], "N", "43017"}
			})

			result, err := validation.NewStage(cfg).Run(context.TODO(), in)
			Expect(err).To(BeNil())
			Expect(result.ValidationStatus).To(BeFalse())

			lines := strings.Split(result.Message, "\n")
			Expect(lines).To(ConsistOf(
				"[COLUMN_COUNT_MISMATCH] test: expected 4 columns, found 5",
				"[TYPE_MISMATCH] test: column policy_number expected int64, found object",
				"[TYPE_MISMATCH] test: column total_claim_amount expected float, found object",
				"[UNEXPECTED_COLUMN] test: column insured_zip is not declared in the schema",
				"[NON_NUMERIC_COLUMN] test: numerical column total_claim_amount has non numeric values",
			))
		})

		It("accepts integers in a float column and missing values", func() {
			train, test := split40()
			withGaps := func(i int) []string {
				c := claim(i)
				if i%7 == 0 {
					c[2] = ""
				}
				return c
			}
			writeClaims(in.TrainedFilePath, claimColumns, train, withGaps)
			writeClaims(in.TestFilePath, claimColumns, test, withGaps)

			result, err := validation.NewStage(cfg).Run(context.TODO(), in)
			Expect(err).To(BeNil())
			Expect(result.ValidationStatus).To(BeTrue())
		})
	})

	Context("drift", func() {
		shifted := func(i int) []string {
			c := claim(i)
			c[1] = fmt.Sprintf("%d", 100000+i*10)
			return c
		}

		BeforeEach(func() {
			train, test := split40()
			writeClaims(in.TrainedFilePath, claimColumns, train, claim)
			writeClaims(in.TestFilePath, claimColumns, test, shifted)
		})

		It("writes the report without failing by default", func() {
			result, err := validation.NewStage(cfg).Run(context.TODO(), in)
			Expect(err).To(BeNil())
			Expect(result.ValidationStatus).To(BeTrue())

			report, err := validation.ReadDriftReport(result.DriftReportPath)
			Expect(err).To(BeNil())
			Expect(report.DriftDetected).To(BeTrue())
			Expect(report.Reference).To(Equal(in.TrainedFilePath))
			Expect(report.Current).To(Equal(in.TestFilePath))
			Expect(report.Drifted()).To(ConsistOf("total_claim_amount"))
			Expect(report.Columns).To(HaveLen(3))
		})

		It("fails when configured to", func() {
			cfg.FailOnDrift = true

			result, err := validation.NewStage(cfg).Run(context.TODO(), in)
			Expect(err).To(BeNil())
			Expect(result.ValidationStatus).To(BeFalse())
			Expect(result.Message).To(Equal("[DATASET_DRIFT] drift detected in columns: total_claim_amount"))
			Expect(result.DriftReportPath).To(Equal(layout.DriftReportFile()))
		})
	})

	Context("infrastructure failures", func() {
		It("reports missing ingested files", func() {
			_, err := validation.NewStage(cfg).Run(context.TODO(), in)
			var infra *validation.ErrValidationInfra
			Expect(errors.As(err, &infra)).To(BeTrue())
		})

		It("reports a missing schema", func() {
			train, test := split40()
			writeClaims(in.TrainedFilePath, claimColumns, train, claim)
			writeClaims(in.TestFilePath, claimColumns, test, claim)
			Expect(os.Remove(cfg.SchemaFilePath)).To(Succeed())

			_, err := validation.NewStage(cfg).Run(context.TODO(), in)
			var infra *validation.ErrValidationInfra
			Expect(errors.As(err, &infra)).To(BeTrue())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("reports an unwritable drift report", func() {
			train, test := split40()
			writeClaims(in.TrainedFilePath, claimColumns, train, claim)
			writeClaims(in.TestFilePath, claimColumns, test, claim)
			blocker := filepath.Join(dir, "blocker")
			Expect(os.WriteFile(blocker, []byte("x"), 0644)).To(Succeed())
			cfg.DriftReportFilePath = filepath.Join(blocker, "report.yaml")

			_, err := validation.NewStage(cfg).Run(context.TODO(), in)
			var infra *validation.ErrValidationInfra
			Expect(errors.As(err, &infra)).To(BeTrue())
		})

		DescribeTable("rejects a malformed schema",
			func(content string) {
				train, test := split40()
				writeClaims(in.TrainedFilePath, claimColumns, train, claim)
				writeClaims(in.TestFilePath, claimColumns, test, claim)
				writeSchema(content)

				_, err := validation.NewStage(cfg).Run(context.TODO(), in)
				var infra *validation.ErrValidationInfra
				Expect(errors.As(err, &infra)).To(BeTrue())
			},
			Entry("no columns", "columns: []\n"),
			Entry("unnamed column", "columns:\n  - type: int64\n"),
			Entry("duplicate column", "columns:\n  - name: a\n    type: int\n  - name: a\n    type: str\n"),
			Entry("unknown type", "columns:\n  - name: a\n    type: timestamp\n"),
			Entry("unknown field", "columns:\n  - name: a\n    type: int\n    nullable: true\n"),
			Entry("not yaml", "columns: [\n"),
			Entry("undeclared numerical column", "columns:\n  - name: a\n    type: int\nnumerical_columns: [b]\n"),
			Entry("undeclared categorical column", "columns:\n  - name: a\n    type: str\ncategorical_columns: [b]\n"),
		)
	})
})

var _ = Describe("Drift statistics", func() {
	It("computes the Kolmogorov-Smirnov statistic", func() {
		a := []float64{1, 2, 3, 4, 5}
		Expect(validation.KSStatistic(a, a)).To(BeNumerically("~", 0.0, 1e-9))
		Expect(validation.KSStatistic(a, []float64{10, 11, 12})).To(BeNumerically("~", 1.0, 1e-9))
		Expect(validation.KSStatistic([]float64{3, 1, 2}, []float64{2, 3, 1})).To(BeNumerically("~", 0.0, 1e-9))
		Expect(validation.KSStatistic([]float64{1, 2, 3, 4}, []float64{3, 4, 5, 6})).To(BeNumerically("~", 0.5, 1e-9))
	})

	It("computes the critical value", func() {
		Expect(validation.KSCriticalValue(0.05, 100, 100)).To(BeNumerically("~", 0.1921, 1e-3))
	})

	It("computes the total variation distance", func() {
		Expect(validation.TotalVariationDistance([]string{"a", "b"}, []string{"b", "a"})).To(BeNumerically("~", 0.0, 1e-9))
		Expect(validation.TotalVariationDistance([]string{"a", "a"}, []string{"b"})).To(BeNumerically("~", 1.0, 1e-9))
		Expect(validation.TotalVariationDistance([]string{"a", "b"}, []string{"a", "a"})).To(BeNumerically("~", 0.5, 1e-9))
	})

	DescribeTable("infers column types",
		func(values []string, expected validation.ColumnType, ok bool) {
			t, found := validation.InferType(values)
			Expect(found).To(Equal(ok))
			Expect(t).To(Equal(expected))
		},
		Entry("integers", []string{"1", "-2", "30"}, validation.TypeInteger, true),
		Entry("floats", []string{"1", "2.5"}, validation.TypeFloat, true),
		Entry("objects", []string{"1", "YES"}, validation.TypeObject, true),
		Entry("nothing", []string{}, validation.ColumnType(""), false),
	)
})

var _ = Describe("Schema", func() {
	It("loads the shipped claims schema", func() {
		s, err := validation.LoadSchema(filepath.Join("..", "..", "config", "schema.yaml"))
		Expect(err).To(BeNil())
		Expect(s.Columns).To(HaveLen(39))
		c, ok := s.Column("fraud_reported")
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(validation.Column{Name: "fraud_reported", Type: "object"}))
		Expect(s.NumericalColumns).To(ContainElement("total_claim_amount"))
	})

	DescribeTable("resolves type aliases",
		func(alias string, expected validation.ColumnType) {
			t, ok := validation.ParseColumnType(alias)
			Expect(ok).To(BeTrue())
			Expect(t).To(Equal(expected))
		},
		Entry("int64", "int64", validation.TypeInteger),
		Entry("integer", "Integer", validation.TypeInteger),
		Entry("double", "double", validation.TypeFloat),
		Entry("category", "category", validation.TypeObject),
	)

	It("lets a float column hold integers but not text", func() {
		Expect(validation.TypeFloat.Accepts(validation.TypeInteger)).To(BeTrue())
		Expect(validation.TypeFloat.Accepts(validation.TypeObject)).To(BeFalse())
		Expect(validation.TypeInteger.Accepts(validation.TypeFloat)).To(BeFalse())
		Expect(validation.TypeObject.Accepts(validation.TypeFloat)).To(BeTrue())
	})
})
