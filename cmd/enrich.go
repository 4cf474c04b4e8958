package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/internal/pipeline"
)

var (
	enrichName     string
	enrichState    string
	enrichCity     string
	enrichDomain   string
	enrichCourseID int64
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a single golf course",
	Long: `Runs the full enrichment for one course and prints the result JSON to stdout.
Exits 1 when the run did not succeed.

Examples:
  course-intel enrich --name "Deercroft Golf & CC" --state NC --domain deercroft.com
  course-intel enrich --name "Pinehurst No. 2" --state NC --course-id 812`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Pipeline.EnrichCourse(ctx, enrichInput())
		if err := writeResult(os.Stdout, res); err != nil {
			return err
		}
		if !res.Success {
			return eris.Errorf("enrich: %s: %s", res.CourseName, res.Error)
		}
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichName, "name", "", "course name (required)")
	enrichCmd.Flags().StringVar(&enrichState, "state", "", "two-letter state code (required)")
	enrichCmd.Flags().StringVar(&enrichCity, "city", "", "course city")
	enrichCmd.Flags().StringVar(&enrichDomain, "domain", "", "course website domain; searched for when empty")
	enrichCmd.Flags().Int64Var(&enrichCourseID, "course-id", 0, "existing course row id (0 = match by name and state)")
	_ = enrichCmd.MarkFlagRequired("name")
	_ = enrichCmd.MarkFlagRequired("state")
	rootCmd.AddCommand(enrichCmd)
}

func enrichInput() pipeline.Input {
	in := pipeline.Input{
		CourseName: enrichName,
		StateCode:  enrichState,
		City:       enrichCity,
		Domain:     enrichDomain,
	}
	if enrichCourseID > 0 {
		id := enrichCourseID
		in.CourseID = &id
	}
	return in
}

func writeResult(w io.Writer, res *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(res), "write result")
}
