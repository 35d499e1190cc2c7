package main

import (
	"context"
	"net/http"

	"github.com/urfave/cli"

	"github.com/mirror-media/mnews-cronjobs/services/cms"
	"github.com/mirror-media/mnews-cronjobs/services/common"
	"github.com/mirror-media/mnews-cronjobs/services/feed"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
)

func makeFeedCMD() cli.Command {
	feedCMD := cli.Command{
		Name:    "feed",
		Aliases: []string{"f"},
		Usage:   "Generates partner feeds and sitemaps",
	}
	configureFeed(&feedCMD)
	return feedCMD
}

func configureFeed(c *cli.Command) {
	c.Subcommands = []cli.Command{
		makeFeedSubCMD("line-today", "Generates LINE Today articles xml", 75, lineToday),
		makeFeedSubCMD("line-today-video", "Generates LINE Today videos xml", 25, lineTodayVideo),
		makeFeedSubCMD("yahoo-rss", "Generates Yahoo rss", 75, yahooRSS),
		makeFeedSubCMD("yahoo-video-rss", "Generates Yahoo video rss", 25, yahooVideoRSS),
		makeFeedSubCMD("facebook-ia", "Generates Facebook Instant Articles rss", 75, facebookIA),
		makeFeedSubCMD("google-news", "Generates Google News sitemaps", 75, googleNews),
		makeFeedSubCMD("sitemap", "Generates site sitemaps", 0, sitemap),
	}
}

func makeFeedSubCMD(name string, usage string, number int, fn job) cli.Command {
	c := cli.Command{
		Name:   name,
		Usage:  usage,
		Action: runJob("feed-"+name, fn),
	}
	configureJob(&c)
	c.Flags = storage.RegisterFlags(c.Flags)
	if number > 0 {
		c.Flags = common.RegisterMaxNumberFlag(c.Flags, number)
	}
	return c
}

// feedDeps loads the job config into cfg and sets up the cms client and uploader.
func feedDeps(ctx context.Context, c *cli.Context, cl *http.Client, cfg any) (*cms.Client, storage.Uploader, func(), error) {
	if err := loadJobConfig(c, cfg); err != nil {
		return nil, nil, nil, err
	}
	up, err := storage.New(c, cl)
	if err != nil {
		return nil, nil, nil, err
	}
	cc, done, err := newCMS(ctx, c, cl)
	if err != nil {
		return nil, nil, nil, err
	}
	return cc, up, done, nil
}

func lineToday(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	cfg := feed.DefaultLineTodayConfig()
	cc, up, done, err := feedDeps(ctx, c, cl, cfg)
	if err != nil {
		return 0, err
	}
	defer done()
	lt, err := feed.NewLineToday(cfg, cc, up, c.Int(common.MaxNumberFlag))
	if err != nil {
		return 0, err
	}
	return lt.RunArticles(ctx)
}

func lineTodayVideo(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	cfg := feed.DefaultLineTodayConfig()
	cc, up, done, err := feedDeps(ctx, c, cl, cfg)
	if err != nil {
		return 0, err
	}
	defer done()
	lt, err := feed.NewLineToday(cfg, cc, up, c.Int(common.MaxNumberFlag))
	if err != nil {
		return 0, err
	}
	return lt.RunVideos(ctx)
}

func yahooRSS(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	cfg := feed.DefaultYahooConfig()
	cc, up, done, err := feedDeps(ctx, c, cl, cfg)
	if err != nil {
		return 0, err
	}
	defer done()
	return feed.NewYahoo(cfg, cc, up, c.Int(common.MaxNumberFlag)).Run(ctx)
}

func yahooVideoRSS(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	cfg := feed.DefaultYahooVideoConfig()
	cc, up, done, err := feedDeps(ctx, c, cl, cfg)
	if err != nil {
		return 0, err
	}
	defer done()
	yv, err := feed.NewYahooVideo(cfg, cc, up, c.Int(common.MaxNumberFlag))
	if err != nil {
		return 0, err
	}
	return yv.Run(ctx)
}

func facebookIA(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	cfg := feed.DefaultFacebookIAConfig()
	cc, up, done, err := feedDeps(ctx, c, cl, cfg)
	if err != nil {
		return 0, err
	}
	defer done()
	fb, err := feed.NewFacebookIA(cfg, cc, up, c.Int(common.MaxNumberFlag))
	if err != nil {
		return 0, err
	}
	return fb.Run(ctx)
}

func googleNews(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	cfg := feed.DefaultGoogleNewsConfig()
	cc, up, done, err := feedDeps(ctx, c, cl, cfg)
	if err != nil {
		return 0, err
	}
	defer done()
	return feed.NewGoogleNews(cfg, cc, up, c.Int(common.MaxNumberFlag)).Run(ctx)
}

func sitemap(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	cfg := feed.DefaultSitemapConfig()
	cc, up, done, err := feedDeps(ctx, c, cl, cfg)
	if err != nil {
		return 0, err
	}
	defer done()
	return feed.NewSiteSitemap(cfg, cc, up).Run(ctx)
}
