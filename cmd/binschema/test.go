package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/serialexp/binschema-sub003/testbundle"
)

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <bundle-file>...",
		Short: "Run one or more JSON test bundles against their embedded schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runTest(args)
		},
	}
}

func runTest(paths []string) error {
	failed := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read bundle %s: %w", path, err)
		}
		bundle, err := testbundle.Load(data)
		if err != nil {
			return fmt.Errorf("load bundle %s: %w", path, err)
		}
		results, err := testbundle.NewRunner(bundle).Run(context.Background())
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		for _, r := range results {
			if r.Passed {
				fmt.Printf("PASS %s: %s\n", path, r.Name)
			} else {
				fmt.Printf("FAIL %s: %s: %v\n", path, r.Name, r.Err)
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d case(s) failed", failed)
	}
	return nil
}
