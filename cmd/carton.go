package main

import (
	"github.com/spf13/cobra"
)

var cartonFacts string

var cartonCmd = &cobra.Command{
	Use:   "carton",
	Short: "Estimate shipping carton volume from a facts JSON file",
	Long:  "Runs the vendor-tier carton estimator and prints the chosen branch, profile and intermediate volumes alongside the resolved cubic feet.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("pricing"); err != nil {
			return err
		}
		facts, err := readFacts(cartonFacts, cmd.InOrStdin())
		if err != nil {
			return err
		}

		_, ce, err := buildPricing()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), ce.Estimate(cmd.Context(), facts))
	},
}

func init() {
	cartonCmd.Flags().StringVar(&cartonFacts, "facts", "", "path to a product facts JSON file, or - for stdin (required)")
	_ = cartonCmd.MarkFlagRequired("facts")
	rootCmd.AddCommand(cartonCmd)
}
