package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepulse/internal/config"
	apperrors "pricepulse/internal/errors"
)

func TestDefaultCollectorsAreValid(t *testing.T) {
	v := NewCollectorValidator()
	assert.NoError(t, v.ValidateCollectors(config.DefaultCollectors()))
}

func TestValidateCollectors(t *testing.T) {
	valid := config.CollectorSpec{
		ID:      "rubber",
		Name:    "Commodity Price Crawler",
		Kind:    config.CollectorKindScript,
		Script:  "func1/commodity_price_crawler.py",
		Outputs: []string{"func1/rubber_prices.txt"},
		Sheet:   "Rubber_TSR20",
	}

	tests := []struct {
		name      string
		mutate    func(*config.CollectorSpec)
		wantField string
	}{
		{name: "missing id", mutate: func(s *config.CollectorSpec) { s.ID = "" }, wantField: "id"},
		{name: "id with dash", mutate: func(s *config.CollectorSpec) { s.ID = "fx-rates" }, wantField: "id"},
		{name: "unknown kind", mutate: func(s *config.CollectorSpec) { s.Kind = "ftp" }, wantField: "kind"},
		{name: "script escapes workdir", mutate: func(s *config.CollectorSpec) { s.Script = "../evil.py" }, wantField: "script"},
		{name: "absolute output", mutate: func(s *config.CollectorSpec) { s.Outputs = []string{"/tmp/x.txt"} }, wantField: "outputs[0]"},
		{name: "no outputs", mutate: func(s *config.CollectorSpec) { s.Outputs = nil }, wantField: "outputs"},
		{name: "sheet too long", mutate: func(s *config.CollectorSpec) { s.Sheet = "Commodity_Data_With_A_Very_Long_Name" }, wantField: "sheet"},
		{name: "sheet with colon", mutate: func(s *config.CollectorSpec) { s.Sheet = "FX:2024" }, wantField: "sheet"},
		{name: "sheet named summary", mutate: func(s *config.CollectorSpec) { s.Sheet = "summary" }, wantField: "sheet"},
		{name: "fetch without url", mutate: func(s *config.CollectorSpec) { s.Kind = config.CollectorKindFetch; s.Script = "" }, wantField: "url"},
		{name: "bad source url", mutate: func(s *config.CollectorSpec) { s.SourceURL = "not a url" }, wantField: "source_url"},
	}

	v := NewCollectorValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := valid
			spec.Outputs = append([]string(nil), valid.Outputs...)
			tt.mutate(&spec)

			err := v.ValidateCollectors([]config.CollectorSpec{spec})
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

			var problems FieldErrors
			require.True(t, errors.As(err, &problems))
			var fields []string
			for _, p := range problems {
				fields = append(fields, p.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidateCollectorsDuplicateIDs(t *testing.T) {
	specs := config.DefaultCollectors()
	specs[1].ID = specs[0].ID

	err := NewCollectorValidator().ValidateCollectors(specs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is duplicated")
}

func TestValidateCollectorsEmpty(t *testing.T) {
	assert.Error(t, NewCollectorValidator().ValidateCollectors(nil))
}

func TestFetchCollectorNeedsNoScript(t *testing.T) {
	spec := config.CollectorSpec{
		ID:      "fred",
		Name:    "FRED",
		Kind:    config.CollectorKindFetch,
		URL:     "https://fred.stlouisfed.org/graph/fredgraph.csv?id=PCU314994314994",
		Outputs: []string{"func4/output/fred.csv"},
		Sheet:   "Commodity_Data",
	}
	assert.NoError(t, NewCollectorValidator().ValidateCollectors([]config.CollectorSpec{spec}))
}
