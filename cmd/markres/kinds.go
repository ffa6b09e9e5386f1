// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aclements/go-markres/spec"
)

func newKindsCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List the mark kinds and the channels they accept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := spec.DefaultRegistry()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tLAYOUT\tCHANNELS")
			for _, k := range reg.Kinds() {
				ki, err := reg.Lookup(k)
				if err != nil {
					return err
				}
				lay := "-"
				if k.Structured() {
					lay = "own"
					if !ki.OwnLayout {
						lay = "own, polar ok"
					}
				}
				chs := ki.ChannelList()
				names := make([]string, len(chs))
				for i, ch := range chs {
					names[i] = string(ch)
				}
				list := fmt.Sprintf("%d channels", len(names))
				if verbose {
					list = strings.Join(names, " ")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", k, lay, list)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list every channel")
	return cmd
}
