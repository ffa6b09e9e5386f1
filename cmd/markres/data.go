// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aclements/go-gg/table"
	"github.com/spf13/cobra"
)

func newDataCmd() *cobra.Command {
	var schema bool
	cmd := &cobra.Command{
		Use:   "data [flags] file",
		Short: "Print a dataset as the engine reads it",
		Long: `Data reads a JSON or CSV dataset and prints it as a table, or with
-schema, the inferred type of each column.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !schema {
				return table.Fprint(w, ds.ToTable())
			}
			tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
			fmt.Fprintln(tw, "COLUMN\tTYPE")
			for _, c := range ds.Columns() {
				fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Type)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&schema, "schema", "s", false, "print column types instead of rows")
	return cmd
}
