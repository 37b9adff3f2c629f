package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kyaoi/mdedit/internal/app"
	"github.com/kyaoi/mdedit/internal/config"
	"github.com/kyaoi/mdedit/internal/export"
)

type runtime struct {
	v       *viper.Viper
	cfg     config.Config
	logger  *slog.Logger
	closer  io.Closer
	cfgFile string
}

func newRootCmd() *cobra.Command {
	rt := &runtime{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "mdedit [file]",
		Short:         "mdedit is a terminal markdown editor with live preview and PNG/PDF export.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.closer != nil {
				_ = rt.closer.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			return app.Run(target, rt.cfg, rt.logger)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rt.cfgFile, "config", "", "config file (default ~/.mdedit/config.toml)")
	flags.StringP("output-dir", "o", "", "directory exports are written to")
	flags.String("log-file", "", "append JSON logs to this file")
	_ = rt.v.BindPFlag(config.OutputDirKey, flags.Lookup("output-dir"))
	_ = rt.v.BindPFlag(config.LogFileKey, flags.Lookup("log-file"))

	rootCmd.AddCommand(exportCmd(rt), configCmd(rt))
	return rootCmd
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	if err := config.Init(rt.v, rt.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(rt.v)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Invalid configuration, using defaults: %v\n", err)
	}
	rt.cfg = cfg

	logger, closer, err := app.NewLogger(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	rt.logger = logger
	rt.closer = closer
	return nil
}

func exportCmd(rt *runtime) *cobra.Command {
	var formatFlag string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a markdown file as PNG, PDF or HTML without opening the editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, ok := export.ParseFormat(formatFlag)
			if !ok {
				return fmt.Errorf("unknown format %q (want png, pdf or html)", formatFlag)
			}
			path, err := app.Export(cmd.Context(), args[0], format, rt.cfg, rt.logger, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "pdf", "export format: png, pdf or html")
	return cmd
}

func configCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if path := config.GetConfigFilePath(rt.v); path != "" {
				fmt.Fprintln(out, "# file:", path)
			}
			c := rt.cfg
			fmt.Fprintf(out, "%s = %s\n", config.HintDelayKey, c.HintDelay)
			fmt.Fprintf(out, "%s = %s\n", config.RenderWaitKey, c.RenderWait)
			fmt.Fprintf(out, "%s = %q\n", config.OutputDirKey, c.OutputDir)
			fmt.Fprintf(out, "%s = %q\n", config.StyleKey, c.Style)
			fmt.Fprintf(out, "%s = %q\n", config.CodeStyleKey, c.CodeStyle)
			fmt.Fprintf(out, "%s = %q\n", config.LogFileKey, c.LogFile)
			fmt.Fprintf(out, "%s = %q\n", config.BackgroundKey, c.Background)
			fmt.Fprintf(out, "%s = %d\n", config.ScaleKey, c.Scale)
			fmt.Fprintf(out, "%s = %d\n", config.ColumnsKey, c.Columns)
			fmt.Fprintf(out, "%s = %t\n", config.StrictPaginationKey, c.StrictPagination)
		},
	}
}
