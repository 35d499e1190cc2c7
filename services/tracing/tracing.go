package tracing

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	otlpEndpointFlag = "otlp-endpoint"
	otlpInsecureFlag = "otlp-insecure"
	serviceName      = "cronjobs"
	shutdownTimeout  = 5 * time.Second
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   otlpEndpointFlag,
			Usage:  "otlp http collector endpoint (host:port), tracing is disabled when empty",
			EnvVar: "OTEL_EXPORTER_OTLP_ENDPOINT",
		},
		cli.BoolFlag{
			Name:   otlpInsecureFlag,
			Usage:  "send traces over plain http",
			EnvVar: "OTLP_INSECURE",
		},
	)
}

// Tracer exports spans of a job run. The zero value and nil are no-ops.
type Tracer struct {
	tp *sdktrace.TracerProvider
}

// New sets up the global tracer provider when an endpoint is configured.
func New(ctx context.Context, c *cli.Context) (*Tracer, error) {
	endpoint := c.String(otlpEndpointFlag)
	if endpoint == "" {
		return nil, nil
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if c.Bool(otlpInsecureFlag) {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create otlp exporter")
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	log.Infof("exporting traces to %v", endpoint)
	return &Tracer{tp: tp}, nil
}

// WrapClient instruments outgoing requests of cl when tracing is enabled.
func (s *Tracer) WrapClient(cl *http.Client) *http.Client {
	if s == nil || s.tp == nil {
		return cl
	}
	tr := cl.Transport
	if tr == nil {
		tr = http.DefaultTransport
	}
	cl.Transport = otelhttp.NewTransport(tr, otelhttp.WithTracerProvider(s.tp))
	return cl
}

// Start opens the root span of a job. Without tracing the noop tracer is used.
func (s *Tracer) Start(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tp == nil {
		return otel.GetTracerProvider().Tracer(serviceName).Start(ctx, name)
	}
	return s.tp.Tracer(serviceName).Start(ctx, name)
}

// Close flushes pending spans.
func (s *Tracer) Close() {
	if s == nil || s.tp == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.tp.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to shutdown tracer provider")
	}
}
