package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/serialexp/binschema-sub003/codec"
	"github.com/serialexp/binschema-sub003/schema"
)

func newEncodeCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "encode <schema-file> <type-name> <value.json>",
		Short: "Encode a JSON value against a schema's named type",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return runEncode(args[0], args[1], args[2], outPath)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file for encoded bytes (\"-\" for stdout)")
	return cmd
}

func runEncode(schemaPath, typeName, valuePath, outPath string) error {
	driver, err := loadDriver(schemaPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(valuePath)
	if err != nil {
		return fmt.Errorf("read value: %w", err)
	}
	var value map[string]any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("parse value json: %w", err)
	}

	out, err := driver.Encode(typeName, value)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if outPath == "-" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outPath, out, 0o644)
}

func loadDriver(schemaPath string) (*codec.Driver, error) {
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	doc, err := schema.LoadDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	validated, diags := schema.Validate(doc)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.String())
		}
		return nil, fmt.Errorf("schema is invalid")
	}
	return codec.NewDriver(validated), nil
}
