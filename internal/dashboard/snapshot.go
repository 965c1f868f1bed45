package dashboard

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image/color"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"pricepulse/pkg/contracts/domain"
)

// Snapshot renders the series as a static PNG line chart and returns it as
// a data URI for pages viewed without JavaScript
func Snapshot(fam Family, categories []string, series map[string][]domain.TimeSeriesRecord) (template.URL, error) {
	p := plot.New()
	p.Title.Text = fam.TitleEN
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Value"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, category := range categories {
		records := series[category]
		if len(records) == 0 {
			continue
		}

		points := make(plotter.XYs, len(records))
		for j, r := range records {
			points[j].X = float64(r.Year) + float64(r.Month-1)/12
			points[j].Y = r.Value
		}

		line, err := plotter.NewLine(points)
		if err != nil {
			return "", fmt.Errorf("snapshot line for %s: %w", category, err)
		}
		line.Color = hexColor(Palette[i%len(Palette)])
		line.Width = vg.Points(1.5)

		p.Add(line)
		p.Legend.Add(category, line)
	}

	w, err := p.WriterTo(10*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return "", fmt.Errorf("snapshot canvas: %w", err)
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("snapshot encode: %w", err)
	}

	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// hexColor parses "#RRGGBB"
func hexColor(s string) color.RGBA {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{A: 255}
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
