package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	pushgatewayURLFlag = "pushgateway-url"
	namespace          = "cronjobs"
	pushJob            = "cronjobs"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   pushgatewayURLFlag,
			Usage:  "prometheus pushgateway url, metrics are not pushed when empty",
			EnvVar: "PUSHGATEWAY_URL",
		},
	)
}

// Pusher reports the outcome of a single job run to a pushgateway.
type Pusher struct {
	url string
	job string
	reg *prometheus.Registry

	duration    prometheus.Gauge
	items       prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New returns nil when no pushgateway is configured. A nil *Pusher is safe to use.
func New(c *cli.Context, job string) *Pusher {
	u := c.String(pushgatewayURLFlag)
	if u == "" {
		return nil
	}
	return NewPusher(u, job)
}

func NewPusher(url string, job string) *Pusher {
	s := &Pusher{
		url: url,
		job: job,
		reg: prometheus.NewRegistry(),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of the last job run.",
		}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_items_total",
			Help:      "Items handled by the last job run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Time of the last successful job run.",
		}),
	}
	s.reg.MustRegister(s.duration, s.items)
	return s
}

// Push sends the run results. The success timestamp is only pushed for
// successful runs so a failure keeps the previous value on the gateway.
func (s *Pusher) Push(d time.Duration, items int, runErr error) {
	if s == nil {
		return
	}
	s.duration.Set(d.Seconds())
	s.items.Set(float64(items))
	p := push.New(s.url, pushJob).
		Grouping("job_name", s.job).
		Gatherer(s.reg)
	if runErr == nil {
		s.lastSuccess.SetToCurrentTime()
		p = p.Collector(s.lastSuccess)
	}
	if err := p.Add(); err != nil {
		log.WithError(errors.Wrap(err, "failed to push metrics")).Warn("metrics lost")
		return
	}
	log.WithField("job", s.job).Debug("metrics pushed")
}
