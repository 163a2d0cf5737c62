package ingestion_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fraudguard/fraud-pipeline/internal/artifact"
	"github.com/fraudguard/fraud-pipeline/internal/ingestion"
	"github.com/fraudguard/fraud-pipeline/internal/store"
	"github.com/fraudguard/fraud-pipeline/pkg/dataset"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeSource struct {
	ds    *dataset.Dataset
	err   error
	calls int
}

func (f *fakeSource) Scan(_ context.Context, _ string) (*dataset.Dataset, error) {
	f.calls++
	return f.ds, f.err
}

func claims(n int) *dataset.Dataset {
	ds := dataset.New([]string{"policy_number", "total_claim_amount", "police_report_available", "fraud_reported"})
	for i := range n {
		report := "YES"
		if i%5 == 0 {
			report = "?"
		}
		ds.Rows = append(ds.Rows, dataset.Row{
			dataset.Value(fmt.Sprintf("%d", 100000+i)),
			dataset.Value(fmt.Sprintf("%d", 5000+i*10)),
			dataset.Value(report),
			dataset.Value("N"),
		})
	}
	return ds
}

func countDataRows(path string) int {
	ds, err := dataset.ReadCSV(path)
	Expect(err).To(BeNil())
	return ds.Len()
}

var _ = Describe("Data ingestion stage", func() {
	var (
		layout artifact.Layout
		cfg    ingestion.Config
	)

	BeforeEach(func() {
		layout = artifact.NewLayout(GinkgoT().TempDir(), time.Now())
		cfg = ingestion.NewConfig("insurancefraud_dataset", 0.25, dataset.DefaultMissingSentinels, layout)
	})

	Context("export", func() {
		It("replaces sentinel markers with missing values", func() {
			stage := ingestion.NewStage(cfg, &fakeSource{ds: claims(10)})

			ds, err := stage.Export(context.TODO())
			Expect(err).To(BeNil())
			Expect(ds.Len()).To(Equal(10))
			Expect(ds.Values("police_report_available")).To(HaveLen(8))
			Expect(ds.Values("police_report_available")).ToNot(ContainElement("?"))
		})

		It("fails on an empty table", func() {
			stage := ingestion.NewStage(cfg, &fakeSource{ds: claims(0)})

			ds, err := stage.Export(context.TODO())
			Expect(ds).To(BeNil())
			var empty *ingestion.ErrEmptyResult
			Expect(errors.As(err, &empty)).To(BeTrue())
		})

		It("returns the source error", func() {
			unavailable := store.NewErrSourceUnavailable("db.internal", errors.New("connection refused"))
			stage := ingestion.NewStage(cfg, &fakeSource{err: unavailable})

			_, err := stage.Export(context.TODO())
			var srcErr *store.ErrSourceUnavailable
			Expect(errors.As(err, &srcErr)).To(BeTrue())
		})
	})

	Context("feature store", func() {
		It("overwrites the previous file", func() {
			stage := ingestion.NewStage(cfg, &fakeSource{})
			path := layout.FeatureStoreFile()

			Expect(stage.PersistFeatureStore(claims(20), path)).To(Succeed())
			Expect(stage.PersistFeatureStore(claims(5), path)).To(Succeed())

			Expect(countDataRows(path)).To(Equal(5))
		})
	})

	Context("split", func() {
		It("rejects a ratio outside (0, 1)", func() {
			stage := ingestion.NewStage(cfg, &fakeSource{})

			_, _, err := stage.Split(claims(10), 1)
			var ratioErr *dataset.ErrInvalidRatio
			Expect(errors.As(err, &ratioErr)).To(BeTrue())
		})

		It("is reproducible with a fixed seed", func() {
			a := ingestion.NewStage(cfg, &fakeSource{}, ingestion.WithSeed(99))
			b := ingestion.NewStage(cfg, &fakeSource{}, ingestion.WithSeed(99))
			Expect(a.Seed()).To(Equal(int64(99)))

			_, testA, err := a.Split(claims(40), 0.25)
			Expect(err).To(BeNil())
			_, testB, err := b.Split(claims(40), 0.25)
			Expect(err).To(BeNil())
			Expect(testA.Values("policy_number")).To(Equal(testB.Values("policy_number")))
		})
	})

	Context("run", func() {
		It("produces train and test files from 1000 rows", func() {
			stage := ingestion.NewStage(cfg, &fakeSource{ds: claims(1000)})

			a, err := stage.Run(context.TODO())
			Expect(err).To(BeNil())
			Expect(a.TrainedFilePath).To(Equal(layout.TrainFile()))
			Expect(a.TestFilePath).To(Equal(layout.TestFile()))
			Expect(a.Verify()).To(Succeed())

			Expect(countDataRows(layout.FeatureStoreFile())).To(Equal(1000))
			Expect(countDataRows(a.TrainedFilePath)).To(Equal(750))
			Expect(countDataRows(a.TestFilePath)).To(Equal(250))
		})

		It("wraps an empty table with the failing step", func() {
			stage := ingestion.NewStage(cfg, &fakeSource{ds: claims(0)})

			_, err := stage.Run(context.TODO())
			var ingErr *ingestion.IngestionError
			Expect(errors.As(err, &ingErr)).To(BeTrue())
			Expect(ingErr.Step).To(Equal(ingestion.StepExport))
			Expect(err.Error()).To(ContainSubstring(ingestion.StageName))

			var empty *ingestion.ErrEmptyResult
			Expect(errors.As(err, &empty)).To(BeTrue())

			_, statErr := os.Stat(layout.FeatureStoreFile())
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})

		It("stops at the split when the ratio is invalid", func() {
			cfg.TestRatio = 0
			stage := ingestion.NewStage(cfg, &fakeSource{ds: claims(10)})

			_, err := stage.Run(context.TODO())
			var ingErr *ingestion.IngestionError
			Expect(errors.As(err, &ingErr)).To(BeTrue())
			Expect(ingErr.Step).To(Equal(ingestion.StepSplit))

			_, statErr := os.Stat(layout.TrainFile())
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})

		It("reports filesystem failures", func() {
			blocker := filepath.Join(GinkgoT().TempDir(), "not-a-dir")
			Expect(os.WriteFile(blocker, []byte("x"), 0644)).To(Succeed())
			cfg.FeatureStoreFilePath = filepath.Join(blocker, "raw_data.csv")
			stage := ingestion.NewStage(cfg, &fakeSource{ds: claims(10)})

			_, err := stage.Run(context.TODO())
			var ingErr *ingestion.IngestionError
			Expect(errors.As(err, &ingErr)).To(BeTrue())
			Expect(ingErr.Step).To(Equal(ingestion.StepFeatureStore))
		})
	})
})
