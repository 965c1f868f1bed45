package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

// Collector kinds
const (
	CollectorKindScript = "script"
	CollectorKindFetch  = "fetch"
)

// CollectorSpec describes one data collector run by the integrator.
// Script and output paths are relative to the working directory.
type CollectorSpec struct {
	ID        string        `yaml:"id" json:"id" validate:"required,alphanum"`
	Name      string        `yaml:"name" json:"name" validate:"required"`
	NameCN    string        `yaml:"name_cn" json:"name_cn"`
	Kind      string        `yaml:"kind" json:"kind" validate:"omitempty,oneof=script fetch"`
	Script    string        `yaml:"script" json:"script,omitempty" validate:"required_unless=Kind fetch,omitempty,relpath"`
	URL       string        `yaml:"url" json:"url,omitempty" validate:"required_if=Kind fetch,omitempty,url"`
	Outputs   []string      `yaml:"outputs" json:"outputs" validate:"required,min=1,dive,required,relpath"`
	Sheet     string        `yaml:"sheet" json:"sheet" validate:"required,sheetname"`
	SourceURL string        `yaml:"source_url" json:"source_url" validate:"omitempty,url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout,omitempty" validate:"gte=0"`
}

// IsFetch reports whether the collector downloads a URL instead of running a script
func (c CollectorSpec) IsFetch() bool {
	return c.Kind == CollectorKindFetch
}

// ScriptDir returns the directory the collector script runs in
func (c CollectorSpec) ScriptDir() string {
	return filepath.Dir(c.Script)
}

type collectorsFile struct {
	Collectors []CollectorSpec `yaml:"collectors"`
}

// DefaultCollectors returns the built-in collector definitions
func DefaultCollectors() []CollectorSpec {
	return []CollectorSpec{
		{
			ID:        "rubber",
			Name:      "Commodity Price Crawler",
			NameCN:    "商品价格爬虫",
			Kind:      CollectorKindScript,
			Script:    "func1/commodity_price_crawler.py",
			Outputs:   []string{"func1/rubber_prices.txt"},
			Sheet:     "Rubber_TSR20",
			SourceURL: "https://www.worldbank.org/en/research/commodity-markets",
		},
		{
			ID:        "bls",
			Name:      "BLS Data Scraper",
			NameCN:    "BLS数据爬虫",
			Kind:      CollectorKindScript,
			Script:    "func2/bls_scraper_auto.py",
			Outputs:   []string{"func2/output/combined_data.xlsx", "func2/bls_data.xlsx"},
			Sheet:     "Commodity_Data",
			SourceURL: "https://data.bls.gov/toppicks?survey=pc",
		},
		{
			ID:        "fx",
			Name:      "Exchange Rate Scraper",
			NameCN:    "汇率数据爬虫",
			Kind:      CollectorKindScript,
			Script:    "func3/exchange_rate_scraper.py",
			Outputs:   []string{"func3/exchange_rates.xlsx", "func3/exchange_rates.txt"},
			Sheet:     "Exchange_Rates",
			SourceURL: "https://www.x-rates.com/average/",
		},
		{
			ID:        "fred",
			Name:      "FRED Data Scraper",
			NameCN:    "FRED数据爬虫",
			Kind:      CollectorKindScript,
			Script:    "func4/run.py",
			Outputs:   []string{"func4/output/PCU314994314994_processed.xlsx", "func4/output/PCU314994314994.xlsx"},
			Sheet:     "Commodity_Data",
			SourceURL: "https://fred.stlouisfed.org/series/PCU314994314994",
		},
	}
}

// LoadCollectors reads collector definitions from a YAML file.
// A missing file yields DefaultCollectors.
func LoadCollectors(path string) ([]CollectorSpec, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultCollectors(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collectors file: %w", err)
	}

	var file collectorsFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse collectors file %s: %w", path, err)
	}
	if len(file.Collectors) == 0 {
		return nil, fmt.Errorf("collectors file %s defines no collectors", path)
	}

	for i := range file.Collectors {
		if file.Collectors[i].Kind == "" {
			file.Collectors[i].Kind = CollectorKindScript
		}
	}
	return file.Collectors, nil
}
