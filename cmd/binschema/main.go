// Command binschema is the CLI collaborator named in spec §2/§6: a thin
// wrapper over the schema/codec/testbundle packages offering encode,
// decode, validate and test subcommands (grounded in the teacher pack's
// cobra-based cmd/magicschema, MacroPower-x/cmd/magicschema/main.go).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "binschema",
		Short:         "Encode, decode and validate BinSchema documents",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newValidateCmd(), newEncodeCmd(), newDecodeCmd(), newTestCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
