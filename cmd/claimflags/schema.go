// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/claimflags/internal/defpack"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the definition pack JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := defpack.GenerateSchema()
			if err != nil {
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(append(schema, '\n'))
				return oops.In("cli").Wrap(err)
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
				return oops.In("cli").With("path", output).Wrap(err)
			}
			if err := os.WriteFile(output, schema, 0o600); err != nil {
				return oops.In("cli").With("path", output).Wrap(err)
			}
			cmd.Printf("Generated %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the schema to this file")
	return cmd
}
