package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dimfreight/internal/model"
)

var quoteFacts string

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price freight for a product described by a facts JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("pricing"); err != nil {
			return err
		}
		facts, err := readFacts(quoteFacts, cmd.InOrStdin())
		if err != nil {
			return err
		}

		fe, _, err := buildPricing()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), fe.CalcFreightSmart(facts, zap.L()))
	},
}

// readFacts decodes a single ProductFacts object from path, or from stdin
// when path is "-", and normalizes it.
func readFacts(path string, stdin io.Reader) (model.ProductFacts, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return model.ProductFacts{}, eris.Wrap(err, "open facts file")
		}
		defer f.Close()
		r = f
	}

	var facts model.ProductFacts
	if err := json.NewDecoder(r).Decode(&facts); err != nil {
		return model.ProductFacts{}, eris.Wrap(err, "decode facts")
	}
	return facts.Normalize(), nil
}

func init() {
	quoteCmd.Flags().StringVar(&quoteFacts, "facts", "", "path to a product facts JSON file, or - for stdin (required)")
	_ = quoteCmd.MarkFlagRequired("facts")
	rootCmd.AddCommand(quoteCmd)
}
