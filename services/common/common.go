package common

import (
	"crypto/tls"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var (
	ConfigFlag      = "config"
	MaxNumberFlag   = "max-number"
	DaysFlag        = "days"
	PlaylistIDsFlag = "playlist-ids"
	LogLevelFlag    = "log-level"
	HTTPTimeoutFlag = "http-timeout"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   LogLevelFlag,
			Usage:  "log level (debug, info, warn, error)",
			Value:  "info",
			EnvVar: "LOG_LEVEL",
		},
		cli.DurationFlag{
			Name:   HTTPTimeoutFlag,
			Usage:  "timeout of outgoing http requests",
			Value:  60 * time.Second,
			EnvVar: "HTTP_TIMEOUT",
		},
	)
}

// RegisterJobConfigFlags adds the per-job yaml config path.
func RegisterJobConfigFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   ConfigFlag + ", c",
			Usage:  "path to the job yaml config",
			EnvVar: "JOB_CONFIG",
		},
	)
}

func RegisterMaxNumberFlag(f []cli.Flag, value int) []cli.Flag {
	return append(f,
		cli.IntFlag{
			Name:   MaxNumberFlag + ", m",
			Usage:  "maximum number of items to fetch",
			Value:  value,
			EnvVar: "MAX_NUMBER",
		},
	)
}

func RegisterDaysFlag(f []cli.Flag, value float64) []cli.Flag {
	return append(f,
		cli.Float64Flag{
			Name:   DaysFlag + ", d",
			Usage:  "number of days to look back",
			Value:  value,
			EnvVar: "DAYS",
		},
	)
}

func RegisterPlaylistIDsFlag(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringSliceFlag{
			Name:   PlaylistIDsFlag + ", p",
			Usage:  "youtube playlist ids to import",
			EnvVar: "PLAYLIST_IDS",
		},
	)
}

func SetupLogging(c *cli.Context) {
	lvl, err := log.ParseLevel(c.String(LogLevelFlag))
	if err != nil {
		log.WithError(err).Warn("unknown log level, keeping info")
		return
	}
	log.SetLevel(lvl)
}

func NewHTTPClient(c *cli.Context) *http.Client {
	timeout := c.Duration(HTTPTimeoutFlag)
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: false},
			Proxy:           http.ProxyFromEnvironment,
		},
	}
}
