// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

func newTooltipCmd(a *app) *cobra.Command {
	var (
		dataPath string
		mark     int
		row      int
		lang     string
	)
	cmd := &cobra.Command{
		Use:   "tooltip [flags] spec",
		Short: "Print the tooltip of one row of a mark as JSON",
		Long: `Tooltip resolves the marks of spec and prints the tooltip payload of
one row. Graph and hierarchy marks index their layout nodes rather than
their input rows; the "row" of each of their primitives is a node index.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := language.Parse(lang)
			if err != nil {
				return fmt.Errorf("bad -lang: %w", err)
			}
			marks, err := loadMarks(args[0], dataPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if mark < 0 || mark >= len(marks) {
				return fmt.Errorf("mark %d out of range [0, %d)", mark, len(marks))
			}
			c, err := a.build(cmd, marks)
			if err != nil {
				return err
			}
			p, err := c.Marks[mark].Tooltip().WithLanguage(tag).Project(row)
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "null")
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&dataPath, "data", "d", "", "JSON dataset `file` for marks without inline data")
	f.IntVar(&mark, "mark", 0, "`index` of the mark")
	f.IntVar(&row, "row", 0, "`index` of the row")
	f.StringVar(&lang, "lang", "en", "BCP 47 `language` for number formatting")
	return cmd
}
