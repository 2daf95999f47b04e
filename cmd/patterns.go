package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Category pattern commands",
}

var patternsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute per-category dimension statistics from packaging records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Learner.Refresh(ctx)
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if !res.Success {
			return eris.Errorf("pattern refresh failed: %s", res.Error)
		}
		zap.L().Info("pattern refresh complete",
			zap.Int("categories", res.CategoriesUpdated),
			zap.Duration("duration", res.Duration),
		)
		return nil
	},
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored category patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		patterns, err := env.Store.ListCategoryPatterns(ctx)
		if err != nil {
			return eris.Wrap(err, "list category patterns")
		}
		return printJSON(cmd.OutOrStdout(), patterns)
	},
}

func init() {
	patternsCmd.AddCommand(patternsRefreshCmd)
	patternsCmd.AddCommand(patternsListCmd)
	rootCmd.AddCommand(patternsCmd)
}
