package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/pipeline"
)

var (
	batchCSV   string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich courses listed in a CSV file",
	Long: `Reads courses from a CSV with the header
course_name,city,state_code,course_id,domain
and enriches them concurrently. Exits 1 if any course failed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		inputs, err := readCourseCSV(batchCSV)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(inputs) > batchLimit {
			inputs = inputs[:batchLimit]
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sum := processBatch(ctx, inputs, batchOptions{
			Concurrency: cfg.Batch.MaxConcurrentCourses,
			PerMinute:   cfg.Batch.CoursesPerMinute,
		}, env.Pipeline.EnrichCourse)

		fmt.Fprintf(os.Stdout, "batch: %d courses, %d succeeded, %d failed, $%.2f\n",
			sum.Total, sum.Succeeded, sum.Failed, sum.CostUSD)
		if sum.Failed > 0 {
			return eris.Errorf("batch: %d of %d courses failed", sum.Failed, sum.Total)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "path to the course CSV (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max courses to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}

// enrichFunc runs one course.
type enrichFunc func(ctx context.Context, in pipeline.Input) *model.Result

type batchOptions struct {
	Concurrency int
	// PerMinute paces course starts; 0 disables pacing.
	PerMinute int
}

type batchSummary struct {
	Total     int
	Succeeded int64
	Failed    int64
	CostUSD   float64
}

// processBatch enriches inputs concurrently. Individual failures are counted,
// never abort the batch.
func processBatch(ctx context.Context, inputs []pipeline.Input, opts batchOptions, enrich enrichFunc) batchSummary {
	sum := batchSummary{Total: len(inputs)}
	if len(inputs) == 0 {
		zap.L().Info("batch: no courses to process")
		return sum
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.PerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.PerMinute)), 1)
	}

	zap.L().Info("batch: processing",
		zap.Int("courses", len(inputs)),
		zap.Int("concurrency", opts.Concurrency),
		zap.Int("per_minute", opts.PerMinute),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	var succeeded, failed atomic.Int64
	var costCents atomic.Int64

	for _, in := range inputs {
		if err := limiter.Wait(gctx); err != nil {
			failed.Add(1)
			continue
		}
		g.Go(func() error {
			log := zap.L().With(zap.String("course", in.CourseName), zap.String("state", in.StateCode))

			res := enrich(gctx, in)
			costCents.Add(int64(res.Summary.TotalCostUSD*100 + 0.5))
			if !res.Success {
				failed.Add(1)
				log.Error("batch: course failed", zap.String("error", res.Error))
				return nil
			}
			succeeded.Add(1)
			log.Info("batch: course complete",
				zap.Int("contacts_written", res.ContactsWritten),
				zap.Strings("flags", res.ValidationFlags),
			)
			return nil
		})
	}
	_ = g.Wait()

	sum.Succeeded = succeeded.Load()
	sum.Failed = failed.Load()
	sum.CostUSD = float64(costCents.Load()) / 100
	zap.L().Info("batch: complete",
		zap.Int("total", sum.Total),
		zap.Int64("succeeded", sum.Succeeded),
		zap.Int64("failed", sum.Failed),
		zap.Float64("cost_usd", sum.CostUSD),
	)
	return sum
}

var courseCSVHeader = []string{"course_name", "city", "state_code", "course_id", "domain"}

// readCourseCSV parses the batch input file.
func readCourseCSV(path string) ([]pipeline.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return parseCourseCSV(f)
}

func parseCourseCSV(r io.Reader) ([]pipeline.Input, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "batch: read header")
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range []string{"course_name", "state_code"} {
		if _, ok := col[name]; !ok {
			return nil, eris.Errorf("batch: csv missing column %q (want %s)", name, strings.Join(courseCSVHeader, ","))
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var inputs []pipeline.Input
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "batch: read line %d", line)
		}
		in := pipeline.Input{
			CourseName: field(rec, "course_name"),
			City:       field(rec, "city"),
			StateCode:  field(rec, "state_code"),
			Domain:     field(rec, "domain"),
		}
		if in.CourseName == "" && in.StateCode == "" {
			continue
		}
		if raw := field(rec, "course_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "batch: line %d: course_id %q", line, raw)
			}
			in.CourseID = &id
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}
