package geo_test

import (
	"net/url"
	"testing"

	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coded(t *testing.T, name, status, condition, category string) geo.Feature {
	t.Helper()
	f, err := geo.NormalizeLine([][]float64{pt(0, 0), pt(1, 1)}, map[string]string{
		geo.KeyName:      name,
		geo.KeyStatus:    status,
		geo.KeyCondition: condition,
		geo.KeyCategory:  category,
	})
	require.NoError(t, err)
	return f
}

func names(features []geo.Feature) []string {
	out := make([]string, 0, len(features))
	for _, f := range features {
		out = append(out, f.Property(geo.KeyName))
	}
	return out
}

func TestFilter_PassThroughKeepsOrder(t *testing.T) {
	features := []geo.Feature{
		coded(t, "Zulu", "1", "1", "6"),
		coded(t, "Alpha", "", "", ""),
		coded(t, "Zulu", "4", "5", "7"),
	}

	f := geo.FilterFromQuery(url.Values{})
	assert.True(t, f.Empty())

	got := f.Apply(features)
	assert.Equal(t, []string{"Zulu", "Alpha", "Zulu"}, names(got))
	assert.Len(t, got, len(features))
}

func TestFilter_Substrings(t *testing.T) {
	features := []geo.Feature{
		coded(t, "Atlantic Express", "1", "1", "6"),
		coded(t, "Pacific Light", "18", "5", "7"),
		coded(t, "atlantic crossing", "", "", ""),
		coded(t, "Indigo West", "13", "Unknown", "10"),
	}

	cases := []struct {
		query url.Values
		want  []string
	}{
		{url.Values{"Name": {"ATLANTIC"}}, []string{"Atlantic Express", "atlantic crossing"}},
		{url.Values{"Name": {" atlantic "}, "Status": {"1"}}, []string{"Atlantic Express"}},
		{url.Values{"Status": {"1"}}, []string{"Atlantic Express", "Pacific Light", "Indigo West"}},
		{url.Values{"Condition": {"unk"}}, []string{"Indigo West"}},
		{url.Values{"CategoryOfCable": {"7"}}, []string{"Pacific Light"}},
		{url.Values{"Name": {"nothing"}}, []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.query.Encode(), func(t *testing.T) {
			got := geo.FilterFromQuery(tc.query).Apply(features)
			assert.Equal(t, tc.want, names(got))
		})
	}
}

func TestFilter_MissingPropertyFailsTerm(t *testing.T) {
	f := geo.Filter{Status: "1"}
	assert.False(t, f.Match(coded(t, "Bare", "", "", "")))
	assert.True(t, geo.Filter{}.Match(coded(t, "Bare", "", "", "")))
}
