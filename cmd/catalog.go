package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dimfreight/internal/model"
	"github.com/sells-group/dimfreight/internal/reconcile"
)

var catalogFile string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Catalog read-model commands",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import products, variants and packaging records from a JSON file",
	Long:  "Reads a JSON array of products. Each variant may carry a packaging entry, which is recorded as an observation and reconciled; entries that fail validation are skipped and counted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		f, err := os.Open(catalogFile)
		if err != nil {
			return eris.Wrap(err, "open catalog file")
		}
		defer f.Close()

		stats, err := importCatalog(ctx, env.Store, env.Reconciler, f)
		if err != nil {
			return err
		}
		zap.L().Info("catalog import complete",
			zap.Int("products", stats.Products),
			zap.Int("variants", stats.Variants),
			zap.Int("packaging", stats.Packaging),
			zap.Int("packaging_skipped", stats.PackagingSkipped),
		)
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

type catalogStats struct {
	Products         int `json:"products"`
	Variants         int `json:"variants"`
	Packaging        int `json:"packaging"`
	PackagingSkipped int `json:"packaging_skipped"`
}

type catalogStore interface {
	UpsertProduct(ctx context.Context, p model.Product) error
}

// observationRecorder is the reconciler's write path. Catalog packaging is
// recorded as an observation so the packaging record stays derived.
type observationRecorder interface {
	InsertObservationAndReconcile(ctx context.Context, variantID string, in reconcile.ObservationInput) (*model.PackagingRecord, error)
}

func importCatalog(ctx context.Context, s catalogStore, rec observationRecorder, r io.Reader) (catalogStats, error) {
	var products []model.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return catalogStats{}, eris.Wrap(err, "decode catalog")
	}

	var stats catalogStats
	for _, p := range products {
		if p.ID == "" {
			return stats, eris.Errorf("catalog product %d has no id", stats.Products)
		}
		if err := s.UpsertProduct(ctx, p); err != nil {
			return stats, eris.Wrapf(err, "upsert product %s", p.ID)
		}
		stats.Products++

		for _, v := range p.Variants {
			stats.Variants++
			if v.Packaging == nil {
				continue
			}
			pkg, err := rec.InsertObservationAndReconcile(ctx, v.ID, importObservation(*v.Packaging))
			var verr *reconcile.ValidationError
			switch {
			case errors.As(err, &verr):
				zap.L().Warn("catalog: skipping packaging record",
					zap.String("variant_id", v.ID),
					zap.Error(err),
				)
				stats.PackagingSkipped++
			case err != nil:
				return stats, eris.Wrapf(err, "record packaging %s", v.ID)
			case pkg != nil:
				stats.Packaging++
			}
		}
	}
	return stats, nil
}

// importConfLevel is assigned to imported records that carry no confidence.
const importConfLevel = 0.9

// importObservation maps a catalog packaging entry onto an observation. A
// missing source is manual, a missing confidence is importConfLevel and a
// zero weight stays unknown.
func importObservation(pkg model.PackagingRecord) reconcile.ObservationInput {
	in := reconcile.ObservationInput{
		Source:       string(pkg.ReconciledSource),
		LengthIn:     pkg.BoxLengthIn,
		WidthIn:      pkg.BoxWidthIn,
		HeightIn:     pkg.BoxHeightIn,
		BoxesPerUnit: max(pkg.BoxesPerUnit, 1),
		ConfLevel:    pkg.ReconciledConfLevel,
		ObservedAt:   pkg.UpdatedAt,
	}
	if in.Source == "" {
		in.Source = string(model.SourceManual)
	}
	if in.ConfLevel == 0 {
		in.ConfLevel = importConfLevel
	}
	if pkg.BoxWeightLb != 0 {
		w := pkg.BoxWeightLb
		in.WeightLb = &w
	}
	return in
}

func init() {
	catalogImportCmd.Flags().StringVar(&catalogFile, "file", "", "path to a catalog JSON file (required)")
	_ = catalogImportCmd.MarkFlagRequired("file")
	catalogCmd.AddCommand(catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}
