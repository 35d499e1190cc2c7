package analytics

import (
	"context"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"google.golang.org/api/analyticsreporting/v4"
	"google.golang.org/api/option"
)

const (
	gaCredentialsFlag = "ga-credentials"
	pageviewsMetric   = "ga:pageviews"
	pathLevel1        = "ga:pagePathLevel1"
	pathLevel2        = "ga:pagePathLevel2"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   gaCredentialsFlag,
			Usage:  "google service account json (application default credentials are used when empty)",
			EnvVar: "GOOGLE_APPLICATION_CREDENTIALS",
		},
	)
}

type DimensionFilter struct {
	DimensionName string   `yaml:"dimensionName"`
	Not           bool     `yaml:"not"`
	Operator      string   `yaml:"operator"`
	Expressions   []string `yaml:"expressions"`
}

// Query describes a pageviews report grouped by the second path level.
type Query struct {
	ViewID            string
	StartDate         string
	EndDate           string
	PagePathLevel1    []string
	AdditionalFilters []DimensionFilter
	PageSize          int64
}

type Row struct {
	Dimensions []string
	Pageviews  int64
}

// BuildRequest makes a single report request ordered by pageviews.
func BuildRequest(q *Query) *analyticsreporting.GetReportsRequest {
	dims := []*analyticsreporting.Dimension{{Name: pathLevel2}}
	filters := []*analyticsreporting.DimensionFilter{{
		DimensionName: pathLevel1,
		Operator:      "REGEXP",
		Expressions:   q.PagePathLevel1,
	}}
	for _, f := range q.AdditionalFilters {
		op := f.Operator
		if op == "" {
			op = "REGEXP"
		}
		dims = append(dims, &analyticsreporting.Dimension{Name: f.DimensionName})
		filters = append(filters, &analyticsreporting.DimensionFilter{
			DimensionName: f.DimensionName,
			Not:           f.Not,
			Operator:      op,
			Expressions:   f.Expressions,
		})
	}
	return &analyticsreporting.GetReportsRequest{
		ReportRequests: []*analyticsreporting.ReportRequest{{
			ViewId: q.ViewID,
			DateRanges: []*analyticsreporting.DateRange{{
				StartDate: q.StartDate,
				EndDate:   q.EndDate,
			}},
			Metrics: []*analyticsreporting.Metric{{Expression: pageviewsMetric}},
			OrderBys: []*analyticsreporting.OrderBy{{
				FieldName: pageviewsMetric,
				SortOrder: "DESCENDING",
			}},
			Dimensions: dims,
			DimensionFilterClauses: []*analyticsreporting.DimensionFilterClause{{
				Operator: "AND",
				Filters:  filters,
			}},
			PageSize: q.PageSize,
		}},
	}
}

// ParseRows flattens the first report into rows sorted by pageviews, highest first.
func ParseRows(res *analyticsreporting.GetReportsResponse) []Row {
	if res == nil || len(res.Reports) == 0 || res.Reports[0].Data == nil {
		return nil
	}
	var rows []Row
	for _, r := range res.Reports[0].Data.Rows {
		row := Row{Dimensions: r.Dimensions}
		if len(r.Metrics) > 0 && len(r.Metrics[0].Values) > 0 {
			v, err := strconv.ParseInt(r.Metrics[0].Values[0], 10, 64)
			if err != nil {
				log.WithError(err).Warnf("bad pageviews value %v", r.Metrics[0].Values[0])
			}
			row.Pageviews = v
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Pageviews > rows[j].Pageviews
	})
	return rows
}

type Api struct {
	svc *analyticsreporting.Service
}

func New(ctx context.Context, c *cli.Context) (*Api, error) {
	var opts []option.ClientOption
	if p := c.String(gaCredentialsFlag); p != "" {
		opts = append(opts, option.WithCredentialsFile(p))
	}
	svc, err := analyticsreporting.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create analytics reporting service")
	}
	return &Api{svc: svc}, nil
}

func (s *Api) Report(ctx context.Context, q *Query) ([]Row, error) {
	log.Infof("requesting report from %v to %v", q.StartDate, q.EndDate)
	res, err := s.svc.Reports.BatchGet(BuildRequest(q)).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get analytics report")
	}
	return ParseRows(res), nil
}
