package dashboard

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"pricepulse/internal/config"
	"pricepulse/pkg/contracts/domain"
)

// ChartJSURL is the CDN location of the charting library
const ChartJSURL = "https://cdn.jsdelivr.net/npm/chart.js"

// Palette is cycled through by chart datasets in category order
var Palette = []string{"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF"}

//go:embed template.html
var pageSource string

var pageTemplate = template.Must(template.New("dashboard").Parse(pageSource))

// Delta is a formatted period-over-period change
type Delta struct {
	Text      string
	Class     string
	Arrow     string
	Reference string
}

// Card is one summary card of the page
type Card struct {
	Title     string
	Value     string
	DateLabel string
	Unit      string
	MoM       Delta
	YoY       Delta
}

// Dataset is the Chart.js dataset for one category
type Dataset struct {
	Label           string              `json:"label"`
	Data            []domain.ChartPoint `json:"data"`
	BorderColor     string              `json:"borderColor"`
	BackgroundColor string              `json:"backgroundColor"`
	Fill            bool                `json:"fill"`
	Tension         float64             `json:"tension"`
}

// Page is the data bound to the HTML template
type Page struct {
	Family      Family
	ChartJSURL  string
	Cards       []Card
	Datasets    []Dataset
	Snapshot    template.URL
	Precision   int
	GeneratedAt string
}

// Report is the input of Render: ordered series per category plus their
// comparisons, in the same category order
type Report struct {
	Categories  []string
	Series      map[string][]domain.TimeSeriesRecord
	Comparisons []domain.ComparisonResult
	Snapshot    template.URL
	GeneratedAt time.Time
}

// Render writes the self-contained HTML page for fam to w
func Render(w io.Writer, fam Family, report Report) error {
	return pageTemplate.Execute(w, BuildPage(fam, report))
}

// BuildPage converts a report into template data
func BuildPage(fam Family, report Report) Page {
	page := Page{
		Family:      fam,
		ChartJSURL:  ChartJSURL,
		Snapshot:    report.Snapshot,
		Precision:   fam.Precision,
		GeneratedAt: report.GeneratedAt.Format(config.TimestampLayout),
	}

	for _, result := range report.Comparisons {
		page.Cards = append(page.Cards, buildCard(fam, result))
	}

	for i, category := range report.Categories {
		color := Palette[i%len(Palette)]
		page.Datasets = append(page.Datasets, Dataset{
			Label:           category,
			Data:            ChartPoints(report.Series[category]),
			BorderColor:     color,
			BackgroundColor: color + "20",
			Fill:            false,
			Tension:         0.4,
		})
	}

	return page
}

func buildCard(fam Family, result domain.ComparisonResult) Card {
	return Card{
		Title:     result.Category,
		Value:     fam.FormatValue(result.Latest.Value),
		DateLabel: DateLabel(result.Latest.Year, result.Latest.Month),
		Unit:      fam.Unit,
		MoM:       buildDelta(fam, result.PriorMonth),
		YoY:       buildDelta(fam, result.YearAgo),
	}
}

func buildDelta(fam Family, ref domain.Reference) Delta {
	d := Delta{
		Text:      FormatChange(ref.PctChange),
		Reference: "N/A",
	}
	if ref.Value != nil {
		d.Reference = fam.FormatValue(*ref.Value)
	}

	switch domain.DirectionOf(ref.PctChange) {
	case domain.DirectionUp:
		d.Class, d.Arrow = "change-positive", "↗️"
	case domain.DirectionDown:
		d.Class, d.Arrow = "change-negative", "↘️"
	default:
		d.Class, d.Arrow = "change-neutral", "➡️"
	}
	return d
}

// FormatChange renders a percentage change with an explicit sign, or N/A
func FormatChange(pct *float64) string {
	if pct == nil {
		return "N/A"
	}
	return fmt.Sprintf("%+.2f%%", *pct)
}

// DateLabel is the card caption for a month
func DateLabel(year, month int) string {
	return fmt.Sprintf("%d年%d月", year, month)
}

// ChartPoints converts an ordered series into chart payload points
func ChartPoints(series []domain.TimeSeriesRecord) []domain.ChartPoint {
	points := make([]domain.ChartPoint, 0, len(series))
	for _, r := range series {
		points = append(points, domain.ChartPoint{X: r.Key().Label(), Y: r.Value})
	}
	return points
}
