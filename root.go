package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "idcard",
	Short: "University of Sindh student ID card verification",
	Long: `idcard reads student ID cards and decides whether the holder may register.

It recovers the student's name, roll number, department, batch and degree
program from an OCR transcript. Cards from another institution, unreadable
scans and batches outside the registration window are rejected.`,
	SilenceUsage: true,
	Version:      version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./idcard.yaml or ~/.idcard/idcard.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	rootCmd.AddCommand(versionCmd)
}
