package main

import (
	"github.com/urfave/cli"
)

func configure(app *cli.App) {
	feedCMD := makeFeedCMD()
	scheduleCMD := makeScheduleCMD()
	searchCMD := makeSearchCMD()
	app.Commands = []cli.Command{feedCMD, scheduleCMD, searchCMD}
}
