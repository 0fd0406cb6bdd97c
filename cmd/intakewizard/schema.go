package main

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/form/formtest"
	"github.com/tbxark/formwizard/patch"
)

var (
	schemaPaths   bool
	schemaExample bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the application JSON schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch {
		case schemaPaths:
			fmt.Fprintln(out, strings.Join(patch.PointerPaths[form.Application](), "\n"))
		case schemaExample:
			data, err := sonic.MarshalIndent(formtest.Complete(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		default:
			schema, err := form.JSONSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, schema)
		}
		return nil
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaPaths, "paths", false, "print the JSON pointer of every field instead")
	schemaCmd.Flags().BoolVar(&schemaExample, "example", false, "print a complete example application instead")
	schemaCmd.MarkFlagsMutuallyExclusive("paths", "example")
}
