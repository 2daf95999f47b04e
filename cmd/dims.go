package main

import (
	"errors"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dimfreight/internal/dimensions"
)

var dimsCmd = &cobra.Command{
	Use:   "dims <sku>",
	Short: "Resolve shipping dimensions for a SKU",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Dimensions.Resolve(ctx, args[0])
		if errors.Is(err, dimensions.ErrVariantNotFound) {
			return eris.Wrapf(err, "no variant with sku %q", args[0])
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(dimsCmd)
}
