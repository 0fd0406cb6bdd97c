package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <application.json>",
	Short: "Validate every step of an application stored as JSON",
	Long:  "Reads an application from a JSON file (or stdin with \"-\") and reports the issues of every step.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		app, err := form.Unmarshal(data)
		if err != nil {
			return err
		}
		results := validate.All(app)
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, types.FormatReport(results))
		for _, r := range results {
			if !r.Valid {
				return fmt.Errorf("step %s is incomplete", r.Step)
			}
		}
		fmt.Fprintln(out, "All steps are valid.")
		return nil
	},
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
