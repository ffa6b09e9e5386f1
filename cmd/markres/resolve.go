// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aclements/go-markres/chart"
	"github.com/aclements/go-markres/internal/observability"
	"github.com/aclements/go-markres/spec"
)

type resolveOutput struct {
	Session string                 `json:"session"`
	Marks   []markOutput           `json:"marks"`
	Scales  map[string]scaleOutput `json:"scales,omitempty"`
}

type markOutput struct {
	Key         string            `json:"key"`
	Kind        string            `json:"kind"`
	Primitives  []chart.Primitive `json:"primitives"`
	Diagnostics string            `json:"diagnostics,omitempty"`
}

type scaleOutput struct {
	Type   string `json:"type"`
	Domain []any  `json:"domain,omitempty"`
	Range  []any  `json:"range,omitempty"`
}

func newResolveCmd(a *app) *cobra.Command {
	var dataPath string
	var scales bool
	cmd := &cobra.Command{
		Use:   "resolve [flags] spec",
		Short: "Resolve marks into primitives and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			marks, err := loadMarks(args[0], dataPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			c, err := a.build(cmd, marks)
			if err != nil {
				return err
			}
			out := resolveOutput{Session: c.Session}
			for _, m := range c.Marks {
				mo := markOutput{Key: m.Key, Kind: m.Kind.String(), Primitives: m.Primitives}
				if mo.Primitives == nil {
					mo.Primitives = []chart.Primitive{}
				}
				if !m.Diagnostics.Empty() {
					mo.Diagnostics = m.Diagnostics.String()
				}
				out.Marks = append(out.Marks, mo)
			}
			if scales {
				out.Scales = make(map[string]scaleOutput)
				for k, s := range c.Scales {
					out.Scales[k.String()] = scaleOutput{Type: string(s.Type()), Domain: s.Domain(), Range: s.Range()}
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "JSON dataset `file` for marks without inline data")
	cmd.Flags().BoolVar(&scales, "scales", false, "include the resolved scales")
	return cmd
}

// build resolves marks with the configured options.
func (a *app) build(cmd *cobra.Command, marks []spec.Mark) (*chart.Chart, error) {
	ctx, cancel := a.buildContext(cmd)
	defer cancel()
	c, err := chart.Build(ctx, marks, a.cfg.ChartOptions())
	if err != nil {
		return nil, err
	}
	observability.GetLogger().Debug("resolved", zap.String("session", c.Session), zap.Int("marks", len(c.Marks)))
	return c, nil
}
