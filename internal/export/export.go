// Package export captures the preview and saves it as an image, a PDF or a
// standalone HTML page.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kyaoi/mdedit/internal/pdf"
	"github.com/kyaoi/mdedit/internal/preview"
	"github.com/kyaoi/mdedit/internal/raster"
	"github.com/kyaoi/mdedit/internal/store"
)

// DefaultRenderWait is how long the preview is given to draw after being
// forced on.
const DefaultRenderWait = 100 * time.Millisecond

// ModeSwitcher reads and changes the view mode.
type ModeSwitcher interface {
	Mode() store.ViewMode
	SetMode(store.ViewMode)
}

// SurfaceLocator finds the rendered preview.
type SurfaceLocator interface {
	LocateSurface() (preview.Surface, error)
}

// Rasterizer turns a surface into a bitmap.
type Rasterizer interface {
	Rasterize(ctx context.Context, s preview.Surface, opts raster.Options) (image.Image, error)
}

// Assembler lays a bitmap out as a paged document.
type Assembler interface {
	Assemble(img image.Image, w io.Writer) error
}

// PageSource renders the document as a standalone HTML page.
type PageSource interface {
	HTMLPage(title string) (string, error)
}

// Downloader hands finished exports to the user.
type Downloader interface {
	Download(name string, data []byte) (string, error)
}

// Option configures an Exporter.
type Option func(*Exporter)

func WithRasterizer(r Rasterizer) Option { return func(e *Exporter) { e.rasterizer = r } }
func WithAssembler(a Assembler) Option   { return func(e *Exporter) { e.assembler = a } }
func WithPageSource(p PageSource) Option { return func(e *Exporter) { e.pages = p } }
func WithNotifier(n Notifier) Option     { return func(e *Exporter) { e.notifier = n } }
func WithLogger(l *slog.Logger) Option   { return func(e *Exporter) { e.logger = l } }
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// WithRenderWait sets the pause after forcing the preview on.
func WithRenderWait(d time.Duration) Option {
	return func(e *Exporter) {
		if d >= 0 {
			e.renderWait = d
		}
	}
}

// WithBackground sets the capture background.
func WithBackground(c color.Color) Option {
	return func(e *Exporter) {
		if c != nil {
			e.background = c
		}
	}
}

// WithScale sets the capture upscale factor.
func WithScale(scale int) Option {
	return func(e *Exporter) {
		if scale > 0 {
			e.scale = scale
		}
	}
}

// Exporter runs one export at a time against the shared store. Concurrent
// calls are not rejected; callers disable their triggers while Exporting
// is set.
type Exporter struct {
	store      *store.Store
	modes      ModeSwitcher
	surface    SurfaceLocator
	downloader Downloader

	rasterizer Rasterizer
	assembler  Assembler
	pages      PageSource
	notifier   Notifier
	logger     *slog.Logger

	renderWait time.Duration
	background color.Color
	scale      int
	now        func() time.Time
}

// New creates an exporter.
func New(st *store.Store, modes ModeSwitcher, surface SurfaceLocator, downloader Downloader, opts ...Option) *Exporter {
	e := &Exporter{
		store:      st,
		modes:      modes,
		surface:    surface,
		downloader: downloader,
		rasterizer: raster.New(),
		assembler:  pdf.Assembler{},
		notifier:   nopNotifier{},
		logger:     slog.New(slog.DiscardHandler),
		renderWait: DefaultRenderWait,
		background: color.White,
		scale:      raster.DefaultScale,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExportImage captures the preview and saves it as a PNG. The returned error
// has already been logged and reported through the Notifier.
func (e *Exporter) ExportImage(ctx context.Context) (string, error) {
	return e.run(ctx, PNG, func(ctx context.Context) ([]byte, error) {
		img, err := e.capture(ctx)
		if err != nil {
			return nil, err
		}
		data, err := raster.EncodePNG(img)
		if err != nil {
			return nil, &CaptureError{Stage: "encode", Err: err}
		}
		return data, nil
	})
}

// ExportDocument captures the preview and saves it as a paged PDF.
func (e *Exporter) ExportDocument(ctx context.Context) (string, error) {
	return e.run(ctx, PDF, func(ctx context.Context) ([]byte, error) {
		img, err := e.capture(ctx)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := e.assembler.Assemble(img, &buf); err != nil {
			return nil, &CaptureError{Stage: "assemble", Err: err}
		}
		return buf.Bytes(), nil
	})
}

// ExportHTML saves the sanitized preview as a standalone HTML page.
func (e *Exporter) ExportHTML(ctx context.Context) (string, error) {
	return e.run(ctx, HTML, func(ctx context.Context) ([]byte, error) {
		if e.pages == nil {
			return nil, &CaptureError{Stage: "render", Err: fmt.Errorf("no html source")}
		}
		title := strings.TrimSuffix(FileName(HTML, e.now()), ".html")
		page, err := e.pages.HTMLPage(title)
		if err != nil {
			return nil, &CaptureError{Stage: "render", Err: err}
		}
		return []byte(page), nil
	})
}

func (e *Exporter) run(ctx context.Context, format Format, produce func(context.Context) ([]byte, error)) (string, error) {
	e.store.SetExporting(true)
	original := e.modes.Mode()
	defer func() {
		e.modes.SetMode(original)
		e.store.SetExporting(false)
	}()

	if original != store.Preview {
		e.modes.SetMode(store.Preview)
		if err := sleep(ctx, e.renderWait); err != nil {
			return "", e.fail(format, err)
		}
	}

	data, err := produce(ctx)
	if err != nil {
		return "", e.fail(format, err)
	}

	path, err := e.downloader.Download(FileName(format, e.now()), data)
	if err != nil {
		return "", e.fail(format, &CaptureError{Stage: "download", Err: err})
	}

	e.logger.Info("export finished", "format", format.String(), "path", path, "bytes", len(data))
	e.notifier.Success(fmt.Sprintf("Successfully exported to %s!", format.Label()))
	return path, nil
}

func (e *Exporter) capture(ctx context.Context) (image.Image, error) {
	surface, err := e.surface.LocateSurface()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSurfaceNotFound, err)
	}
	e.logger.Debug("surface located", "lines", len(surface.Lines), "empty", surface.Empty())
	img, err := e.rasterizer.Rasterize(ctx, surface, raster.Options{Background: e.background, Scale: e.scale})
	if err != nil {
		return nil, &CaptureError{Stage: "rasterize", Err: err}
	}
	return img, nil
}

func (e *Exporter) fail(format Format, err error) error {
	e.logger.Error("export failed", "format", format.String(), "err", err)
	e.notifier.Failure(fmt.Sprintf("Failed to export to %s", format.Label()))
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
