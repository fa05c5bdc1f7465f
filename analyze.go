package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/uosphere/idcard-verification/config"
	"github.com/uosphere/idcard-verification/dto"
)

var analyzeConfidence float64

var analyzeCmd = &cobra.Command{
	Use:   "analyze [transcript-file|-]",
	Short: "Parse and validate an OCR transcript",
	Long: `Parse an OCR transcript of a student ID card and validate the result.

The transcript is read from the given file, or from stdin when the argument
is "-" or missing. The command exits non-zero when the card is rejected.

Examples:
  idcard analyze card.txt --confidence 85
  tesseract card.png - | idcard analyze --confidence 90 -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			text []byte
			err  error
		)
		if len(args) == 0 || args[0] == "-" {
			text, err = io.ReadAll(cmd.InOrStdin())
		} else {
			text, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read transcript: %w", err)
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		svc, err := newIDCardService(cfg, config.NewLogger(cfg.Log, cmd.ErrOrStderr()))
		if err != nil {
			return err
		}

		resp := svc.AnalyzeText(cmd.Context(), string(text), analyzeConfidence)
		return report(cmd, resp)
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan <image-or-pdf>",
	Short: "OCR a card image or PDF, then parse and validate it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read card: %w", err)
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		svc, err := newIDCardService(cfg, config.NewLogger(cfg.Log, cmd.ErrOrStderr()))
		if err != nil {
			return err
		}

		resp, err := svc.VerifyUpload(cmd.Context(), data, mimetype.Detect(data).String())
		if err != nil {
			return err
		}
		return report(cmd, resp)
	},
}

// report prints the response and turns a rejection into a non-zero exit.
func report(cmd *cobra.Command, resp *dto.IDCardResponse) error {
	if err := writeOutput(cmd.OutOrStdout(), outputFormat, resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("card rejected: %s", resp.Kind)
	}
	return nil
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeConfidence, "confidence", 100, "OCR confidence of the transcript (0-100)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scanCmd)
}
