package dashboard

import (
	"fmt"
	"strings"

	"pricepulse/internal/config"
	"pricepulse/internal/dataprocessing"
)

// Input is one source file of a dashboard family
type Input struct {
	// Path is relative to the working directory unless absolute
	Path    string
	Options dataprocessing.ParseOptions
}

// SourceLink is a data provenance link shown in the page footer
type SourceLink struct {
	Label string
	URL   string
}

// Family describes one dashboard: its inputs, how values are displayed and
// where the page is written
type Family struct {
	Name       string
	Title      string
	TitleEN    string
	ChartTitle string
	Inputs     []Input

	// Precision is the number of decimals used for displayed values
	Precision   int
	ValuePrefix string
	Unit        string
	OutputFile  string
	Sources     []SourceLink
}

// BLSCodes is the ordered BLS producer price index mapping. The n-th code
// is read from column n+1 of the wide table.
var BLSCodes = []dataprocessing.SeriesCode{
	{Code: "PCU325212325212P", Name: "Synthetic Rubber"},
	{Code: "PCU325211325211", Name: "Plastics & Resin"},
	{Code: "PCU332618332618", Name: "Wire Products"},
	{Code: "PCU3251803251806", Name: "Carbon Black"},
}

// Family names accepted by Lookup
const (
	FamilyCommodity = "commodity"
	FamilyExchange  = "exchange"
	FamilyRubber    = "rubber"
)

// Commodity is the tire-related producer price index dashboard
func Commodity() Family {
	return Family{
		Name:       FamilyCommodity,
		Title:      "轮胎相关商品价格指数分析",
		TitleEN:    "Tire-Related Commodity Price Index Analysis Dashboard",
		ChartTitle: "轮胎相关商品价格指数趋势图 / Tire-Related Commodity Price Index Trend Chart",
		Inputs: []Input{
			{
				Path: "csv_output/FRED_Data.csv",
				Options: dataprocessing.ParseOptions{
					Layout:    dataprocessing.LayoutCompactToken,
					Category:  "Tire Cord PPI",
					SourceTag: "FRED",
				},
			},
			{
				Path: "csv_output/BLS_Data.csv",
				Options: dataprocessing.ParseOptions{
					Layout:    dataprocessing.LayoutWideTable,
					SourceTag: "BLS",
					Codes:     BLSCodes,
				},
			},
		},
		Precision:  2,
		Unit:       "基准指数 / Index",
		OutputFile: config.CommodityDashboardFile,
		Sources: []SourceLink{
			{Label: "FRED - Producer Price Index by Industry: Rope, Twine, Tire Cord, and Tire Fabric Mills", URL: "https://fred.stlouisfed.org/series/PCU314994314994"},
			{Label: "BLS - Producer Price Index Industry Data", URL: "https://data.bls.gov/toppicks?survey=pc"},
		},
	}
}

// Exchange is the USD/EUR exchange rate dashboard
func Exchange() Family {
	return Family{
		Name:       FamilyExchange,
		Title:      "USD/EUR汇率分析",
		TitleEN:    "USD/EUR Exchange Rate Analysis Dashboard",
		ChartTitle: "USD/EUR汇率趋势图 / Exchange Rate Trend Chart",
		Inputs: []Input{
			{
				Path: "csv_output/Exchange_Rates.csv",
				Options: dataprocessing.ParseOptions{
					Layout:      dataprocessing.LayoutYearMonthValue,
					ValueColumn: "Exchange_Rate",
					Category:    "USD/EUR",
					SourceTag:   "X-Rates",
				},
			},
		},
		Precision:  6,
		Unit:       "1 USD = ? EUR",
		OutputFile: config.ExchangeDashboardFile,
		Sources: []SourceLink{
			{Label: "X-Rates - Monthly Average", URL: "https://www.x-rates.com/average/"},
		},
	}
}

// Rubber is the TSR20 natural rubber price dashboard
func Rubber() Family {
	return Family{
		Name:       FamilyRubber,
		Title:      "橡胶价格分析",
		TitleEN:    "Rubber Price Analysis Dashboard",
		ChartTitle: "橡胶价格趋势图 / Rubber Price Trend Chart",
		Inputs: []Input{
			{
				Path: "csv_output/Rubber_TSR20.csv",
				Options: dataprocessing.ParseOptions{
					Layout:    dataprocessing.LayoutDateValue,
					Category:  "Rubber TSR20",
					SourceTag: "WorldBank",
				},
			},
		},
		Precision:   4,
		ValuePrefix: "$",
		Unit:        "USD/公斤 USD/kg",
		OutputFile:  config.RubberDashboardFile,
		Sources: []SourceLink{
			{Label: "World Bank - Commodity Markets", URL: "https://www.worldbank.org/en/research/commodity-markets"},
		},
	}
}

// Families returns every dashboard family in rendering order
func Families() []Family {
	return []Family{Commodity(), Exchange(), Rubber()}
}

// Lookup returns the family with the given name
func Lookup(name string) (Family, error) {
	for _, f := range Families() {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return Family{}, fmt.Errorf("unknown dashboard family %q", name)
}

// FormatValue renders v with the family precision and value prefix
func (f Family) FormatValue(v float64) string {
	return f.ValuePrefix + fmt.Sprintf("%.*f", f.Precision, v)
}
