package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    bool
		wantErr bool
	}{
		{name: "literal match", pattern: "data.csv", input: "data.csv", want: true},
		{name: "literal mismatch", pattern: "data.csv", input: "data.txt", want: false},
		{name: "star suffix", pattern: "*.csv", input: "Allowances.csv", want: true},
		{name: "star crosses slash", pattern: "*.csv", input: "2024/Emissions.csv", want: true},
		{name: "bare star matches everything", pattern: "*", input: "dir/sub/file.bin", want: true},
		{name: "bare star matches empty", pattern: "*", input: "", want: true},
		{name: "star in middle", pattern: "Emissions*.csv", input: "Emissions_2024.csv", want: true},
		{name: "double star collapses", pattern: "**.csv", input: "a/b.csv", want: true},
		{name: "question mark", pattern: "data?.csv", input: "data1.csv", want: true},
		{name: "question mark needs a char", pattern: "data?.csv", input: "data.csv", want: false},
		{name: "class match", pattern: "data[123].csv", input: "data2.csv", want: true},
		{name: "class mismatch", pattern: "data[123].csv", input: "data4.csv", want: false},
		{name: "class range", pattern: "report-[a-c].txt", input: "report-b.txt", want: true},
		{name: "class range outside", pattern: "report-[a-c].txt", input: "report-d.txt", want: false},
		{name: "negated class caret", pattern: "data[^0-9].csv", input: "dataX.csv", want: true},
		{name: "negated class bang", pattern: "data[!0-9].csv", input: "data5.csv", want: false},
		{name: "case sensitive", pattern: "*.CSV", input: "data.csv", want: false},
		{name: "empty pattern empty name", pattern: "", input: "", want: true},
		{name: "empty pattern nonempty name", pattern: "", input: "x", want: false},
		{name: "unterminated class", pattern: "data[12", input: "data1", wantErr: true},
		{name: "inverted range", pattern: "data[z-a]", input: "datab", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.pattern, tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrBadPattern)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchFiltersArchiveListing(t *testing.T) {
	entries := []string{"Allowances.csv", "Emissions.csv", "readme.txt"}

	var matched []string
	for _, e := range entries {
		ok, err := Match("*.csv", e)
		require.NoError(t, err)
		if ok {
			matched = append(matched, e)
		}
	}
	assert.Equal(t, []string{"Allowances.csv", "Emissions.csv"}, matched)
}
