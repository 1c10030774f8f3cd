package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"papertrader/cmd/robo"
	"papertrader/cmd/server"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Papertrader CMD"
	app.Usage = "The papertrader command line interface"

	app.Commands = []cli.Command{
		serverCMD,
		roboCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serverCMD = cli.Command{
		Name:        "server",
		Usage:       "run API server",
		Action:      serverAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run API server CMD`,
	}
	roboCMD = cli.Command{
		Name:        "robo",
		Usage:       "run autonomous coordinator",
		Action:      roboAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run autonomous coordinator CMD`,
	}
)

func serverAction(_ *cli.Context) error {

	logrus.Info("Starting server CMD")
	logrus.WithField("cmd", "server")

	apiServer := &server.Server{}
	err := apiServer.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func roboAction(_ *cli.Context) error {

	logrus.Info("Starting robo CMD")
	logrus.WithField("cmd", "robo")

	coordinator := &robo.Robo{}
	err := coordinator.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
