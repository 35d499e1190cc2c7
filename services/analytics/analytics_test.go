package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/analyticsreporting/v4"
)

func TestBuildRequest(t *testing.T) {
	req := BuildRequest(&Query{
		ViewID:         "123",
		StartDate:      "2021-01-01",
		EndDate:        "2021-01-03",
		PagePathLevel1: []string{`^/story/`},
		AdditionalFilters: []DimensionFilter{
			{DimensionName: "ga:hostname", Not: true, Expressions: []string{"dev"}},
			{DimensionName: "ga:deviceCategory", Operator: "EXACT", Expressions: []string{"mobile"}},
		},
		PageSize: 20,
	})
	require.Len(t, req.ReportRequests, 1)
	r := req.ReportRequests[0]
	assert.Equal(t, "123", r.ViewId)
	assert.Equal(t, int64(20), r.PageSize)
	assert.Equal(t, "2021-01-01", r.DateRanges[0].StartDate)
	assert.Equal(t, "ga:pageviews", r.OrderBys[0].FieldName)
	assert.Equal(t, "DESCENDING", r.OrderBys[0].SortOrder)
	require.Len(t, r.Dimensions, 3)
	assert.Equal(t, "ga:pagePathLevel2", r.Dimensions[0].Name)
	assert.Equal(t, "ga:hostname", r.Dimensions[1].Name)

	clause := r.DimensionFilterClauses[0]
	assert.Equal(t, "AND", clause.Operator)
	require.Len(t, clause.Filters, 3)
	assert.Equal(t, "ga:pagePathLevel1", clause.Filters[0].DimensionName)
	assert.Equal(t, "REGEXP", clause.Filters[0].Operator)
	assert.True(t, clause.Filters[1].Not)
	assert.Equal(t, "REGEXP", clause.Filters[1].Operator)
	assert.Equal(t, "EXACT", clause.Filters[2].Operator)
}

func TestParseRows(t *testing.T) {
	res := &analyticsreporting.GetReportsResponse{
		Reports: []*analyticsreporting.Report{{
			Data: &analyticsreporting.ReportData{
				Rows: []*analyticsreporting.ReportRow{
					{Dimensions: []string{"/a/"}, Metrics: []*analyticsreporting.DateRangeValues{{Values: []string{"9"}}}},
					{Dimensions: []string{"/b/"}, Metrics: []*analyticsreporting.DateRangeValues{{Values: []string{"100"}}}},
					{Dimensions: []string{"/c/"}, Metrics: []*analyticsreporting.DateRangeValues{{Values: []string{"10"}}}},
				},
			},
		}},
	}
	rows := ParseRows(res)
	require.Len(t, rows, 3)
	assert.Equal(t, "/b/", rows[0].Dimensions[0])
	assert.Equal(t, int64(100), rows[0].Pageviews)
	assert.Equal(t, "/c/", rows[1].Dimensions[0])
	assert.Equal(t, "/a/", rows[2].Dimensions[0])
}

func TestParseRows_Empty(t *testing.T) {
	assert.Nil(t, ParseRows(nil))
	assert.Nil(t, ParseRows(&analyticsreporting.GetReportsResponse{}))
}
