/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"godiagram/internal/config"
	"godiagram/internal/document"
	"godiagram/internal/domain"
	"godiagram/internal/export"
	"godiagram/internal/persist"
	"godiagram/internal/shell"
	"godiagram/internal/storage"
	"godiagram/internal/version"

	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "godiagram",
		Short:             "Edit and export .fsd diagram documents",
		Version:           version.String(),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default: <user config dir>/godiagram/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the log level (debug|info|warn|error)")
	root.AddCommand(
		versionCmd(),
		newCmd(a),
		infoCmd(a),
		exportCmd(a),
		recentCmd(a),
		editCmd(a),
		configCmd(a),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "godiagram", version.String())
		},
	}
}

func newCmd(a *app) *cobra.Command {
	var force bool
	c := &cobra.Command{
		Use:   "new <file.fsd>",
		Short: "Create an empty document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := abs(args[0])
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			data, err := persist.SerializeDocument(nil, nil)
			if err != nil {
				return err
			}
			if err := storage.WriteDocument(path, data, storage.WriteOptions{KeepBackups: a.cfg.Editor.BackupsKeep}); err != nil {
				return err
			}
			a.log.Info("document created", slog.String("path", path))
			fmt.Fprintln(cmd.OutOrStdout(), "Created", path)
			return nil
		},
	}
	c.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return c
}

func infoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.fsd>",
		Short: "Print a summary of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := storage.ReadDocument(args[0])
			if err != nil {
				return err
			}
			doc, err := persist.DeserializeDocument(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			counts := map[domain.Kind]int{}
			for _, el := range doc.Elements {
				el.Walk(func(e *domain.Element) bool {
					counts[e.Kind]++
					return true
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Document: %s\n", abs(args[0]))
			fmt.Fprintf(out, "Top-level elements: %d (selected %d)\n", len(doc.Elements), len(doc.Selection))
			fmt.Fprintf(out, "Shapes: %d  Connectors: %d  Groups: %d\n", counts[domain.KindShape], counts[domain.KindConnector], counts[domain.KindGroup])
			if len(doc.Elements) > 0 {
				b := domain.UnionBounds(doc.Elements)
				fmt.Fprintf(out, "Bounds: %g,%g %gx%g\n", b.X, b.Y, b.Width, b.Height)
			}
			a.log.Debug("info", slog.String("path", args[0]), slog.Int("elements", len(doc.Elements)))
			return nil
		},
	}
}

func exportCmd(a *app) *cobra.Command {
	var (
		scale, margin float64
		outline       bool
	)
	c := &cobra.Command{
		Use:   "export <file.fsd> <out.png|out.pdf>",
		Short: "Render a document to PNG or PDF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !export.IsExportPath(args[1]) {
				return fmt.Errorf("%w: %s", export.ErrUnsupportedFormat, args[1])
			}
			data, err := storage.ReadDocument(args[0])
			if err != nil {
				return err
			}
			els, err := persist.Deserialize(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			opt := a.exportOptions()
			if cmd.Flags().Changed("scale") {
				opt.Scale = scale
			}
			if cmd.Flags().Changed("margin") {
				opt.Margin = margin
			}
			if cmd.Flags().Changed("outline") {
				opt.GroupOutline = outline
			}
			start := time.Now()
			if err := export.ToFile(args[1], els, opt); err != nil {
				return err
			}
			a.log.Info("exported", slog.String("src", args[0]), slog.String("dst", args[1]), slog.Duration("took", time.Since(start)))
			fmt.Fprintln(cmd.OutOrStdout(), "Exported", abs(args[1]))
			return nil
		},
	}
	c.Flags().Float64Var(&scale, "scale", 0, "pixels per diagram unit (PNG)")
	c.Flags().Float64Var(&margin, "margin", 0, "margin around the drawing")
	c.Flags().BoolVar(&outline, "outline", false, "draw dashed outlines around groups")
	return c
}

func recentCmd(a *app) *cobra.Command {
	var (
		limit  int
		forget string
	)
	c := &cobra.Command{
		Use:   "recent",
		Short: "List recently opened or saved documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.openRecent()
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "The recent documents index is disabled.")
				return nil
			}
			defer func() { _ = rec.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if forget != "" {
				return rec.Forget(ctx, forget)
			}
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Recent.Limit
			}
			entries, err := rec.List(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recent documents.")
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %4d  %s\n", e.OpenedAt.Local().Format("2006-01-02 15:04"), e.Elements, e.Path)
			}
			return nil
		},
	}
	c.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of entries")
	c.Flags().StringVar(&forget, "forget", "", "remove a document from the index")
	return c
}

func editCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "edit [file.fsd]",
		Short: "Edit a document in the interactive console",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			con := shell.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())
			opts := document.Options{
				KeepBackups: a.cfg.Editor.BackupsKeep,
				Export:      a.exportOptions(),
				RecentLimit: a.cfg.Recent.Limit,
			}
			rec, err := a.openRecent()
			if err != nil {
				a.log.Warn("recent index unavailable", slog.Any("err", err))
			} else if rec != nil {
				defer func() { _ = rec.Close() }()
				opts.Recent = rec
			}
			a.ctrl = document.NewController(a.newSession(), con, opts)
			if len(args) == 1 {
				if _, err := a.ctrl.Open(abs(args[0])); err != nil {
					if !errors.Is(err, fs.ErrNotExist) {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s does not exist yet; use \"saveas %s\" to create it.\n", args[0], args[0])
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), `godiagram console. Type "help" for commands.`)
			return shell.New(a.ctrl, con).Run(cmd.Context())
		},
	}
	c.Flags().BoolVar(&a.systemClip, "system-clipboard", false, "use the operating system clipboard for copy and paste")
	return c
}

func configCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	c.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	})
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(p); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			}
			if err := config.SaveTo(p, config.Defaults()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", p)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	c.AddCommand(initCmd)
	return c
}

func (a *app) configPath() (string, error) {
	if a.cfgFile != "" {
		return a.cfgFile, nil
	}
	return config.ConfigPath()
}
