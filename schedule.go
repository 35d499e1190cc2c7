package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/analytics"
	"github.com/mirror-media/mnews-cronjobs/services/common"
	"github.com/mirror-media/mnews-cronjobs/services/k3"
	"github.com/mirror-media/mnews-cronjobs/services/schedule"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
	"github.com/mirror-media/mnews-cronjobs/services/ytrelay"
)

func makeScheduleCMD() cli.Command {
	scheduleCMD := cli.Command{
		Name:    "schedule",
		Aliases: []string{"s"},
		Usage:   "Publishes, rotates and imports cms content",
	}
	configureSchedule(&scheduleCMD)
	return scheduleCMD
}

func configureSchedule(c *cli.Command) {
	publishCmd := cli.Command{
		Name:   "publish-posts",
		Usage:  "Publishes scheduled posts, art shows and sales",
		Action: runJob("schedule-publish-posts", publishPosts),
	}
	rotateCmd := cli.Command{
		Name:   "rotate-states",
		Usage:  "Rotates editor choices, video editor choices and promotion videos",
		Action: runJob("schedule-rotate-states", rotateStates(schedule.AllRotationKinds)),
	}
	editorChoicesCmd := cli.Command{
		Name:   "editor-choices",
		Usage:  "Rotates editor choices",
		Action: runJob("schedule-editor-choices", rotateStates(schedule.EditorChoicesKinds)),
	}
	importPostsCmd := cli.Command{
		Name:   "import-posts",
		Usage:  "Imports published k3 posts as drafts",
		Action: runJob("schedule-import-posts", importPosts),
	}
	importPostsCmd.Flags = common.RegisterMaxNumberFlag(importPostsCmd.Flags, 10)
	importYoutubeCmd := cli.Command{
		Name:   "import-youtube",
		Usage:  "Imports youtube playlist videos as video news drafts",
		Action: runJob("schedule-import-youtube", importYoutube),
	}
	importYoutubeCmd.Flags = common.RegisterMaxNumberFlag(importYoutubeCmd.Flags, 8)
	importYoutubeCmd.Flags = common.RegisterPlaylistIDsFlag(importYoutubeCmd.Flags)
	popularCmd := cli.Command{
		Name:   "popular",
		Usage:  "Generates the popular posts report",
		Action: runJob("schedule-popular", popular),
	}
	popularCmd.Flags = common.RegisterDaysFlag(popularCmd.Flags, 2)
	popularCmd.Flags = analytics.RegisterFlags(popularCmd.Flags)
	popularCmd.Flags = storage.RegisterFlags(popularCmd.Flags)
	c.Subcommands = []cli.Command{publishCmd, rotateCmd, editorChoicesCmd, importPostsCmd, importYoutubeCmd, popularCmd}
	for k := range c.Subcommands {
		configureJob(&c.Subcommands[k])
	}
}

func publishPosts(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	cc, done, err := newCMS(ctx, c, cl)
	if err != nil {
		return 0, err
	}
	defer done()
	return schedule.NewPublisher(cc).Run(ctx)
}

func rotateStates(kinds []models.Kind) job {
	return func(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
		cc, done, err := newCMS(ctx, c, cl)
		if err != nil {
			return 0, err
		}
		defer done()
		return schedule.NewRotator(cc, kinds).Run(ctx)
	}
}

func importPosts(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	cfg := schedule.DefaultImportConfig()
	if err := loadJobConfig(c, cfg); err != nil {
		return 0, err
	}
	cc, done, err := newCMS(ctx, c, cl)
	if err != nil {
		return 0, err
	}
	defer done()
	src := k3.New(cfg.SourceK3Endpoints.Posts, cl)
	return schedule.NewPostImporter(cfg, src, cc, c.Int(common.MaxNumberFlag)).Run(ctx)
}

// playlistIDs accepts repeated flags as well as comma separated lists.
func playlistIDs(c *cli.Context) []string {
	var res []string
	for _, v := range c.StringSlice(common.PlaylistIDsFlag) {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				res = append(res, id)
			}
		}
	}
	return res
}

func importYoutube(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	ids := playlistIDs(c)
	if len(ids) == 0 {
		return 0, errors.New("no playlist ids provided")
	}
	cfg := schedule.DefaultYoutubeConfig()
	if err := loadJobConfig(c, cfg); err != nil {
		return 0, err
	}
	cc, done, err := newCMS(ctx, c, cl)
	if err != nil {
		return 0, err
	}
	defer done()
	pl := ytrelay.New(cfg.YTRelayEndpoints.PlaylistItems, cl)
	conv := k3.NewConverter(cfg.ConvertTextEndpoint, cl)
	return schedule.NewYoutubeImporter(pl, conv, cc, c.Int(common.MaxNumberFlag)).Run(ctx, ids)
}

func popular(ctx context.Context, c *cli.Context, cl *http.Client) (int, error) {
	cfg := schedule.DefaultPopularConfig()
	if err := loadJobConfig(c, cfg); err != nil {
		return 0, err
	}
	ga, err := analytics.New(ctx, c)
	if err != nil {
		return 0, err
	}
	up, err := storage.New(c, cl)
	if err != nil {
		return 0, err
	}
	cc, done, err := newCMS(ctx, c, cl)
	if err != nil {
		return 0, err
	}
	defer done()
	return schedule.NewPopular(cfg, ga, cc, up, int(c.Float64(common.DaysFlag))).Run(ctx)
}
