package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dimfreight/internal/model"
	"github.com/sells-group/dimfreight/internal/reconcile"
)

var (
	observeVariant string
	observeSource  string
	observeLength  float64
	observeWidth   float64
	observeHeight  float64
	observeWeight  float64
	observeBoxes   int
	observeConf    float64
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Record a dimension observation and reconcile the variant's packaging",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		in := reconcile.ObservationInput{
			Source:       observeSource,
			LengthIn:     observeLength,
			WidthIn:      observeWidth,
			HeightIn:     observeHeight,
			BoxesPerUnit: observeBoxes,
			ConfLevel:    observeConf,
		}
		if cmd.Flags().Changed("weight") {
			in.WeightLb = &observeWeight
		}

		rec, err := env.Reconciler.InsertObservationAndReconcile(ctx, observeVariant, in)
		if err != nil {
			return err
		}
		if rec == nil {
			zap.L().Warn("observation stored without a reconciled packaging record",
				zap.String("variant_id", observeVariant),
			)
		}
		return printJSON(cmd.OutOrStdout(), struct {
			VariantID string                 `json:"variant_id"`
			Packaging *model.PackagingRecord `json:"packaging"`
		}{observeVariant, rec})
	},
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	f := observeCmd.Flags()
	f.StringVar(&observeVariant, "variant", "", "variant ID (required)")
	f.StringVar(&observeSource, "source", string(model.SourceManual), "observation source: manual, override, zyte, amazon, other")
	f.Float64Var(&observeLength, "length", 0, "box length in inches")
	f.Float64Var(&observeWidth, "width", 0, "box width in inches")
	f.Float64Var(&observeHeight, "height", 0, "box height in inches")
	f.Float64Var(&observeWeight, "weight", 0, "box weight in pounds (omit when unknown)")
	f.IntVar(&observeBoxes, "boxes", 1, "boxes per unit")
	f.Float64Var(&observeConf, "conf", 0.9, "confidence level between 0 and 1")
	_ = observeCmd.MarkFlagRequired("variant")
	rootCmd.AddCommand(observeCmd)
}
