package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pauloqxm/voce-denuncia/services"
)

var showWarnings bool

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the sheet once and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, closeSource, err := newLoader()
		if err != nil {
			return err
		}
		defer closeSource()

		result, err := loader.Load(cmd.Context())
		if err != nil {
			return err
		}

		insights := services.NewInsightService(logger)
		out := cmd.OutOrStdout()
		insights.Print(out, insights.Generate(result.Records, result.Warnings))

		if showWarnings {
			for _, w := range result.Warnings {
				fmt.Fprintf(out, "  row %-5d %-16s %-40q %s\n", w.Row, w.Column, w.Raw, w.Reason)
			}
		}
		return nil
	},
}

func init() {
	loadCmd.Flags().BoolVar(&showWarnings, "warnings", false, "List every cell that fell back to raw text or absent")
}
