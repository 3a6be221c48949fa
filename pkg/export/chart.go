package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// ChartOptions controls severity chart export.
type ChartOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title  string // Optional title rendered above the bars
	Scan   model.ScanResult
}

// SaveSeverityChart renders the scan's severity distribution as a bar chart
// (SVG or PNG) with a small summary block.
func SaveSeverityChart(opts ChartOptions) error {
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildChartLayout(opts)

	switch format {
	case "svg":
		file, err := os.Create(opts.Path)
		if err != nil {
			return err
		}
		defer file.Close()
		return renderChartSVG(file, layout)
	default:
		return renderChartPNG(opts.Path, layout)
	}
}

// --- layout ----------------------------------------------------------------

type chartBar struct {
	Label string
	Count int
	Color color.RGBA
	X, Y  float64
	W, H  float64
}

type chartLayout struct {
	Title    string
	Subtitle string
	Bars     []chartBar
	Width    int
	Height   int
}

var severityBarColors = map[model.Impact]color.RGBA{
	model.ImpactCritical: {0xdc, 0x26, 0x26, 0xff},
	model.ImpactSerious:  {0xea, 0x58, 0x0c, 0xff},
	model.ImpactModerate: {0xd9, 0x77, 0x06, 0xff},
	model.ImpactMinor:    {0x25, 0x63, 0xeb, 0xff},
}

var (
	chartBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	chartStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	chartText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	chartSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
)

func buildChartLayout(opts ChartOptions) chartLayout {
	const (
		width      = 520
		barW       = 90.0
		barGap     = 28.0
		baseline   = 300.0
		maxBarH    = 190.0
		leftMargin = 44.0
	)

	maxCount := 1
	for _, impact := range model.Impacts {
		if n := opts.Scan.Summary.BySeverity[impact]; n > maxCount {
			maxCount = n
		}
	}

	bars := make([]chartBar, 0, len(model.Impacts))
	x := leftMargin
	for _, impact := range model.Impacts {
		count := opts.Scan.Summary.BySeverity[impact]
		h := maxBarH * float64(count) / float64(maxCount)
		bars = append(bars, chartBar{
			Label: titleCase(string(impact)),
			Count: count,
			Color: severityBarColors[impact],
			X:     x,
			Y:     baseline - h,
			W:     barW,
			H:     h,
		})
		x += barW + barGap
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Accessibility Issues by Severity"
	}
	subtitle := fmt.Sprintf("%s — %d issue(s), scanned %s",
		opts.Scan.URL, opts.Scan.Summary.Total,
		opts.Scan.Timestamp.Format("2006-01-02"))

	return chartLayout{
		Title:    title,
		Subtitle: mdTruncate(subtitle, 78),
		Bars:     bars,
		Width:    width,
		Height:   360,
	}
}

// --- rendering -------------------------------------------------------------

func renderChartPNG(path string, layout chartLayout) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(chartBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(chartText)
	dc.DrawStringAnchored(layout.Title, 24, 28, 0, 0.5)
	dc.SetColor(chartSubtle)
	dc.DrawStringAnchored(layout.Subtitle, 24, 48, 0, 0.5)

	// baseline
	dc.SetColor(chartStroke)
	dc.SetLineWidth(1)
	dc.DrawLine(24, 300, float64(layout.Width)-24, 300)
	dc.Stroke()

	for _, bar := range layout.Bars {
		if bar.H > 0 {
			dc.SetColor(bar.Color)
			dc.DrawRectangle(bar.X, bar.Y, bar.W, bar.H)
			dc.Fill()
		}
		dc.SetColor(chartText)
		dc.DrawStringAnchored(fmt.Sprintf("%d", bar.Count), bar.X+bar.W/2, bar.Y-10, 0.5, 0.5)
		dc.SetColor(chartSubtle)
		dc.DrawStringAnchored(bar.Label, bar.X+bar.W/2, 316, 0.5, 0.5)
	}

	return dc.SavePNG(path)
}

func renderChartSVG(w io.Writer, layout chartLayout) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(chartBackdrop)))

	canvas.Text(24, 32, layout.Title,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(chartText)))
	canvas.Text(24, 52, layout.Subtitle,
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(chartSubtle)))

	canvas.Line(24, 300, layout.Width-24, 300,
		fmt.Sprintf("stroke:%s;stroke-width:1", css(chartStroke)))

	for _, bar := range layout.Bars {
		if bar.H > 0 {
			canvas.Rect(int(bar.X), int(bar.Y), int(bar.W), int(bar.H),
				fmt.Sprintf("fill:%s", css(bar.Color)))
		}
		canvas.Text(int(bar.X+bar.W/2), int(bar.Y)-8, fmt.Sprintf("%d", bar.Count),
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;text-anchor:middle", css(chartText)))
		canvas.Text(int(bar.X+bar.W/2), 320, bar.Label,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;text-anchor:middle", css(chartSubtle)))
	}

	canvas.End()
	return nil
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
