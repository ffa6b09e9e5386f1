// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command markres resolves chart mark specifications into positioned,
// styled geometry.
//
// Usage:
//
//	markres resolve [-data file] spec
//	markres tooltip [-data file] [-mark n] -row i spec
//	markres kinds
//	markres data [-schema] file
//
// A spec file holds one mark, an array of marks, or an object with a
// "children" array of marks, as JSON or, given a .yaml or .yml
// extension, YAML. A spec of "-" is read from standard input. Marks
// without inline data are bound to the dataset named by -data, a JSON
// array of objects or, given a .csv extension, a CSV file with a
// header record.
//
// Configuration is read from ./markres.yaml or the file named by
// -config, and may be overridden by MARKRES_-prefixed environment
// variables such as MARKRES_AREA_WIDTH.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aclements/go-markres/config"
	"github.com/aclements/go-markres/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "markres:", err)
		os.Exit(1)
	}
}

// app holds the state shared by the subcommands.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "markres",
		Short:         "Resolve chart mark specifications into geometry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.Sync()
		},
	}
	f := root.PersistentFlags()
	f.StringVarP(&a.cfgFile, "config", "c", "", "config `file` (default ./markres.yaml)")
	f.Float64("width", 0, "plot area `width` in pixels")
	f.Float64("height", 0, "plot area `height` in pixels")
	f.String("log-level", "", "log `level`")
	f.Int("concurrency", 0, "maximum marks resolved at once")
	for key, flag := range map[string]string{
		"area.width":         "width",
		"area.height":        "height",
		"logger.level":       "log-level",
		"engine.concurrency": "concurrency",
	} {
		if err := a.v.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(newResolveCmd(a), newTooltipCmd(a), newKindsCmd(), newDataCmd())
	return root
}

// init loads the configuration and sets up logging.
func (a *app) init() error {
	config.SetDefaults(a.v)
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("markres")
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	observability.InitializeLogger(cfg.Logger)
	return nil
}

// buildContext returns the context of a chart build, bounded by the
// configured timeout.
func (a *app) buildContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.cfg.Engine.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Engine.Timeout)
	}
	return context.WithCancel(ctx)
}
