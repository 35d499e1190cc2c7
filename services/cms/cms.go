package cms

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"github.com/machinebox/graphql"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/mirror-media/mnews-cronjobs/services/config"
)

const (
	cmsConfigFlag   = "config-graphql"
	cmsEndpointFlag = "cms-endpoint"
	cmsUsernameFlag = "cms-username"
	cmsPasswordFlag = "cms-password"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   cmsConfigFlag + ", g",
			Usage:  "path to the graphql yaml config (apiEndpoint, username, password)",
			EnvVar: "CMS_CONFIG",
		},
		cli.StringFlag{
			Name:   cmsEndpointFlag,
			Usage:  "cms graphql endpoint",
			EnvVar: "CMS_ENDPOINT",
		},
		cli.StringFlag{
			Name:   cmsUsernameFlag,
			Usage:  "cms username",
			EnvVar: "CMS_USERNAME",
		},
		cli.StringFlag{
			Name:   cmsPasswordFlag,
			Usage:  "cms password",
			EnvVar: "CMS_PASSWORD",
		},
	)
}

type Config struct {
	APIEndpoint string `yaml:"apiEndpoint"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

// Client talks to the Keystone GraphQL api. It keeps the bearer token obtained
// by Login and the session cookie obtained by SignIn.
type Client struct {
	cfg   Config
	gql   *graphql.Client
	token string
}

func New(c *cli.Context, cl *http.Client) (*Client, error) {
	cfg := Config{}
	if err := config.Load(c.String(cmsConfigFlag), &cfg); err != nil {
		return nil, err
	}
	if v := c.String(cmsEndpointFlag); v != "" {
		cfg.APIEndpoint = v
	}
	if v := c.String(cmsUsernameFlag); v != "" {
		cfg.Username = v
	}
	if v := c.String(cmsPasswordFlag); v != "" {
		cfg.Password = v
	}
	return NewClient(cfg, cl)
}

func NewClient(cfg Config, cl *http.Client) (*Client, error) {
	if cfg.APIEndpoint == "" {
		return nil, errors.New("cms api endpoint is not configured")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}
	hc := &http.Client{Jar: jar}
	if cl != nil {
		hc.Transport = cl.Transport
		hc.Timeout = cl.Timeout
	}
	gql := graphql.NewClient(cfg.APIEndpoint, graphql.WithHTTPClient(hc))
	gql.Log = func(s string) {
		log.Debug(s)
	}
	log.Infof("cms api endpoint %v", cfg.APIEndpoint)
	return &Client{
		cfg: cfg,
		gql: gql,
	}, nil
}

func (s *Client) HasCredentials() bool {
	return s.cfg.Username != "" && s.cfg.Password != ""
}

// Run executes a query or mutation and decodes its data into resp.
func (s *Client) Run(ctx context.Context, q string, resp any) error {
	req := graphql.NewRequest(q)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if err := s.gql.Run(ctx, req, resp); err != nil {
		return errors.Wrap(err, "graphql request failed")
	}
	return nil
}

const loginMutation = `mutation {
  authenticate: authenticateUserWithPassword(email: %s, password: %s) {
    token
  }
}`

// Login exchanges the configured credentials for a bearer token used by every following request.
func (s *Client) Login(ctx context.Context) error {
	var resp struct {
		Authenticate *struct {
			Token string `json:"token"`
		} `json:"authenticate"`
	}
	q := fmt.Sprintf(loginMutation, String(s.cfg.Username), String(s.cfg.Password))
	if err := s.Run(ctx, q, &resp); err != nil {
		return errors.Wrap(err, "failed to authenticate")
	}
	if resp.Authenticate == nil || resp.Authenticate.Token == "" {
		return errors.New("authentication returned no token")
	}
	s.token = resp.Authenticate.Token
	log.WithField("username", s.cfg.Username).Info("authenticated to cms")
	return nil
}

const logoutMutation = `mutation {
  unauthenticate: unauthenticateUser {
    success
  }
}`

func (s *Client) Logout(ctx context.Context) error {
	var resp struct {
		Unauthenticate struct {
			Success bool `json:"success"`
		} `json:"unauthenticate"`
	}
	if err := s.Run(ctx, logoutMutation, &resp); err != nil {
		return errors.Wrap(err, "failed to unauthenticate")
	}
	s.token = ""
	log.WithField("success", resp.Unauthenticate.Success).Info("unauthenticated from cms")
	return nil
}

const signinMutation = `mutation signin {
  authenticate: authenticateUserWithPassword(email: %s, password: %s) {
    item {
      id
    }
  }
}`

// SignIn opens a cookie session instead of a bearer token. The session cookie
// is kept in the client's cookie jar.
func (s *Client) SignIn(ctx context.Context) error {
	var resp struct {
		Authenticate *struct {
			Item struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"authenticate"`
	}
	q := fmt.Sprintf(signinMutation, String(s.cfg.Username), String(s.cfg.Password))
	if err := s.Run(ctx, q, &resp); err != nil {
		return errors.Wrap(err, "failed to sign in")
	}
	if resp.Authenticate == nil {
		return errors.New("sign in returned no session")
	}
	log.WithField("username", s.cfg.Username).Info("signed in to cms")
	return nil
}
