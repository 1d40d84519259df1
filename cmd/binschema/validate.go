package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/serialexp/binschema-sub003/schema"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema-file>",
		Short: "Parse and validate a schema document, reporting diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func runValidate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	doc, err := schema.LoadDocument(data)
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}
	_, diags := schema.Validate(doc)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.String())
		}
		return fmt.Errorf("%d validation error(s)", len(diags))
	}
	fmt.Println("schema is valid")
	return nil
}
