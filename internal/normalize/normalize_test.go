package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kronicd/WA-Covid-Mailer/internal/domain"
	"github.com/kronicd/WA-Covid-Mailer/internal/normalize"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Cafe X", want: "Cafe X"},
		{name: "leading and trailing whitespace", in: "  Cafe X  ", want: "Cafe X"},
		{name: "non-breaking spaces stripped", in: "Cafe X", want: "CafeX"},
		{name: "line breaks become separators", in: "Shop 1\n200 Example St", want: "Shop 1, 200 Example St"},
		{name: "lines are trimmed", in: "Shop 1  \n  200 Example St", want: "Shop 1, 200 Example St"},
		{name: "empty line collapses to semicolon", in: "Shop 1\n\n200 Example St", want: "Shop 1; 200 Example St"},
		{name: "carriage returns dropped", in: "Shop 1\r\n200 Example St\r", want: "Shop 1, 200 Example St"},
		{name: "trailing separator trimmed", in: "Cafe X,\n", want: "Cafe X"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Clean(tt.in))
		})
	}
}

func TestCleanDeterministic(t *testing.T) {
	inputs := []string{
		"Perth CBD",
		"  Line one\n\nLine two  ",
		"already clean",
	}
	for _, in := range inputs {
		assert.Equal(t, normalize.Clean(in), normalize.Clean(in))
	}
}

func TestCleanWhitespaceInsensitive(t *testing.T) {
	assert.Equal(t, normalize.Clean("Cafe X"), normalize.Clean("  Cafe X   "))
}

func TestBatch(t *testing.T) {
	recs := []domain.Record{
		{
			Schema: domain.UWA,
			Values: map[string]string{
				"date":     " 3 March ",
				"time":     "10:00am - 11:00am",
				"location": "Reid Library\nGround floor",
			},
		},
	}

	got := normalize.Batch(recs)

	assert.Equal(t, "3 March", got[0].Values["date"])
	assert.Equal(t, "10:00am- 11:00am", got[0].Values["time"])
	assert.Equal(t, "Reid Library, Ground floor", got[0].Values["location"])
	// input untouched
	assert.Equal(t, " 3 March ", recs[0].Values["date"])
}

func TestDedupeKeys(t *testing.T) {
	rec := func(loc string) domain.Record {
		return domain.Record{
			Schema: domain.UWA,
			Values: map[string]string{"date": "3 March", "time": "10am", "location": loc},
		}
	}

	got := normalize.DedupeKeys([]domain.Record{rec("Library"), rec("Library"), rec("Library"), rec("Gym")})

	assert.Equal(t, "Library", got[0].Values["location"])
	assert.Equal(t, "Library #2", got[1].Values["location"])
	assert.Equal(t, "Library #3", got[2].Values["location"])
	assert.Equal(t, "Gym", got[3].Values["location"])

	// all four keys now distinct
	keys := map[string]bool{}
	for _, r := range got {
		keys[r.KeyString()] = true
	}
	assert.Len(t, keys, 4)
}
