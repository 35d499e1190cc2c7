package main

import (
	"context"
	"net/http"

	"github.com/urfave/cli"

	"github.com/mirror-media/mnews-cronjobs/services/cms"
	"github.com/mirror-media/mnews-cronjobs/services/common"
	"github.com/mirror-media/mnews-cronjobs/services/search"
)

func makeSearchCMD() cli.Command {
	searchCMD := cli.Command{
		Name:  "search",
		Usage: "Keeps the search index in sync with the cms",
	}
	configureSearch(&searchCMD)
	return searchCMD
}

func configureSearch(c *cli.Command) {
	esFeedCmd := cli.Command{
		Name:   "es-feed",
		Usage:  "Syncs posts updated since the last run into elasticsearch",
		Action: runJob("search-es-feed", esFeed),
	}
	configureJob(&esFeedCmd)
	esFeedCmd.Flags = search.RegisterFlags(esFeedCmd.Flags)
	esFeedCmd.Flags = common.RegisterDaysFlag(esFeedCmd.Flags, 0)
	c.Subcommands = []cli.Command{esFeedCmd}
}

func esFeed(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	cfg, err := search.NewConfig(c)
	if err != nil {
		return 0, err
	}
	es, err := search.NewElasticFromFlags(c, cl, cfg)
	if err != nil {
		return 0, err
	}
	cc, err := cms.New(c, cl)
	if err != nil {
		return 0, err
	}
	if err := cc.SignIn(ctx); err != nil {
		return 0, err
	}
	return search.NewSyncer(cfg, cc, es).Run(ctx, c.Float64(common.DaysFlag))
}
