package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <schema-file> <type-name> <bytes-file>",
		Short: "Decode a binary file against a schema's named type, printing JSON",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDecode(args[0], args[1], args[2])
		},
	}
	return cmd
}

func runDecode(schemaPath, typeName, bytesPath string) error {
	driver, err := loadDriver(schemaPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(bytesPath)
	if err != nil {
		return fmt.Errorf("read bytes: %w", err)
	}

	value, err := driver.Decode(typeName, data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal decoded value: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
