package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"go.opentelemetry.io/otel/codes"

	"github.com/mirror-media/mnews-cronjobs/services/cms"
	"github.com/mirror-media/mnews-cronjobs/services/common"
	"github.com/mirror-media/mnews-cronjobs/services/config"
	"github.com/mirror-media/mnews-cronjobs/services/metrics"
	"github.com/mirror-media/mnews-cronjobs/services/tracing"
)

// job runs one batch and reports how many items it handled.
type job func(ctx context.Context, c *cli.Context, cl *http.Client) (int, error)

func configureJob(c *cli.Command) {
	c.Flags = common.RegisterFlags(c.Flags)
	c.Flags = common.RegisterJobConfigFlags(c.Flags)
	c.Flags = cms.RegisterFlags(c.Flags)
	c.Flags = metrics.RegisterFlags(c.Flags)
	c.Flags = tracing.RegisterFlags(c.Flags)
}

func runJob(name string, fn job) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		common.SetupLogging(c)
		l := log.WithField("job", name)
		l.Info("executing...")
		ctx := context.Background()

		// Setting Tracing
		tr, err := tracing.New(ctx, c)
		if err != nil {
			return err
		}
		defer tr.Close()

		// Setting HTTP Client
		cl := tr.WrapClient(common.NewHTTPClient(c))

		ctx, span := tr.Start(ctx, name)
		start := time.Now()
		n, err := fn(ctx, c, cl)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		metrics.New(c, name).Push(time.Since(start), n, err)
		if err != nil {
			return errors.Wrapf(err, "job %v failed", name)
		}
		l.WithField("items", n).Info("exiting... goodbye...")
		return nil
	}
}

func loadJobConfig(c *cli.Context, v any) error {
	return config.Load(c.String(common.ConfigFlag), v)
}

// newCMS returns a cms client that is logged in when credentials are
// configured. The returned func logs out again.
func newCMS(ctx context.Context, c *cli.Context, cl *http.Client) (*cms.Client, func(), error) {
	cc, err := cms.New(c, cl)
	if err != nil {
		return nil, nil, err
	}
	if !cc.HasCredentials() {
		return cc, func() {}, nil
	}
	if err := cc.Login(ctx); err != nil {
		return nil, nil, err
	}
	return cc, func() { logout(ctx, cc) }, nil
}

type logouter interface {
	Logout(ctx context.Context) error
}

func logout(ctx context.Context, l logouter) {
	if err := l.Logout(ctx); err != nil {
		log.WithError(err).Warn("failed to logout from cms")
	}
}
