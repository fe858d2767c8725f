package dataio

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"factorizer/internal/logger"
	"factorizer/internal/pkg/args"
	"factorizer/internal/series"
)

const (
	chartWidthPx  = 1600
	chartHeightPx = 500
)

type chartWriterArgs struct {
	DirPath   string   `mapstructure:"dir_path"`
	Columns   []string `mapstructure:"columns"`
	RenderPNG bool     `mapstructure:"render_png"`
}

// WriteChart renders the factor table as one HTML page per symbol, each
// column as a line series. With render_png a headless browser screenshot is
// written next to the HTML.
func WriteChart(ctx context.Context, table *series.Table, raw map[string]any) error {
	var a chartWriterArgs
	if err := args.Decode(raw, &a); err != nil {
		return err
	}
	if a.DirPath == "" {
		return fmt.Errorf("chart writer requires dir_path")
	}
	if err := os.MkdirAll(a.DirPath, 0o755); err != nil {
		return err
	}
	for _, frame := range table.Partition() {
		cols := a.Columns
		if len(cols) == 0 {
			cols = frame.Columns()
		}
		html, err := renderFramePage(frame, cols)
		if err != nil {
			return err
		}
		base := "factors"
		if frame.Symbol != "" {
			base = strings.ToLower(frame.Symbol) + "_factors"
		}
		htmlPath := filepath.Join(a.DirPath, base+".html")
		if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
			return err
		}
		logger.Infof("chart: wrote %s (%d series)", htmlPath, len(cols))
		if a.RenderPNG {
			png, err := renderHTMLToPNG(ctx, html, chartWidthPx, chartHeightPx+120)
			if err != nil {
				return fmt.Errorf("rendering %s to png: %w", base, err)
			}
			if err := os.WriteFile(filepath.Join(a.DirPath, base+".png"), png, 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderFramePage(frame *series.Frame, cols []string) ([]byte, error) {
	xs := make([]string, frame.Len())
	for i, ts := range frame.Times() {
		xs[i] = series.FormatTime(ts)
	}
	title := "factors"
	if frame.Symbol != "" {
		title = frame.Symbol + " factors"
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx),
		}),
	)
	line.SetXAxis(xs)
	for _, name := range cols {
		vals, ok := frame.Column(name)
		if !ok {
			return nil, fmt.Errorf("chart writer: column %q not in result table", name)
		}
		points := make([]opts.LineData, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) {
				points[i] = opts.LineData{Value: nil}
			} else {
				points[i] = opts.LineData{Value: v}
			}
		}
		line.AddSeries(name, points)
	}
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(line)
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderHTMLToPNG(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()
	timeoutCtx, cancelTimeout := context.WithTimeout(parent, 20*time.Second)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var screenshot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500 * time.Millisecond),
		chromedp.FullScreenshot(&screenshot, 0),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, err
	}
	return screenshot, nil
}
