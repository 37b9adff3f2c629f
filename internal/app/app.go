package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/kyaoi/mdedit/internal/config"
	"github.com/kyaoi/mdedit/internal/export"
	"github.com/kyaoi/mdedit/internal/mode"
	"github.com/kyaoi/mdedit/internal/pdf"
	"github.com/kyaoi/mdedit/internal/preview"
	"github.com/kyaoi/mdedit/internal/raster"
	"github.com/kyaoi/mdedit/internal/store"
	"github.com/kyaoi/mdedit/internal/ui"
)

// Run executes the Bubble Tea program for the markdown editor.
func Run(target string, cfg config.Config, logger *slog.Logger) error {
	state, err := LoadInitialState(target)
	if err != nil {
		return err
	}
	logger.Info("starting editor", "source", state.SourcePath, "bytes", len(state.Content))

	model := ui.NewModel(state, ui.WithConfig(cfg), ui.WithLogger(logger))
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Export renders target without the UI and saves it in format, reporting
// the outcome on out.
func Export(ctx context.Context, target string, format export.Format, cfg config.Config, logger *slog.Logger, out io.Writer) (string, error) {
	state, err := LoadInitialState(target)
	if err != nil {
		return "", err
	}
	return exportState(ctx, state, format, cfg, logger, afero.NewOsFs(), out)
}

func exportState(ctx context.Context, state ui.State, format export.Format, cfg config.Config, logger *slog.Logger, fs afero.Fs, out io.Writer) (string, error) {
	st := store.New(state.Content)
	modes := mode.New(st, mode.WithDelay(cfg.HintDelay))
	defer modes.Stop()

	view := preview.NewView(st,
		preview.WithStyle(cfg.Style),
		preview.WithSurfaceColumns(cfg.Columns),
		preview.WithHTMLRenderer(preview.NewHTMLRenderer(cfg.CodeStyle)),
	)
	background, err := raster.ParseColor(cfg.Background)
	if err != nil {
		return "", err
	}
	exporter := export.New(st, modes, view, export.NewFileDownloader(fs, cfg.OutputDir),
		export.WithAssembler(pdf.Assembler{Strict: cfg.StrictPagination}),
		export.WithPageSource(view),
		export.WithNotifier(export.WriterNotifier{W: out}),
		export.WithLogger(logger),
		export.WithRenderWait(0),
		export.WithBackground(background),
		export.WithScale(cfg.Scale),
	)

	switch format {
	case export.PNG:
		return exporter.ExportImage(ctx)
	case export.PDF:
		return exporter.ExportDocument(ctx)
	case export.HTML:
		return exporter.ExportHTML(ctx)
	}
	return "", fmt.Errorf("unsupported format %v", format)
}
