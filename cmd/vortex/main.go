/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/vortex"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
	fileServer bool
	verbose    int
}

func newRootCmd() *cobra.Command {
	options := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "vortex",
		Short:         "HTTP edge server: canned responses, reverse proxy and static files from one route table",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(options)
		},
	}

	cmd.PersistentFlags().StringVarP(&options.configFile, "config", "c", "", "load config from yaml file")
	cmd.PersistentFlags().BoolVarP(&options.fileServer, "file-server", "s", false, "serve the current directory as static files")
	cmd.Flags().CountVarP(&options.verbose, "verbose", "v", "verbose level, e.g. -vv")

	return cmd
}

func initLogging(verbose int) {
	level := logrus.InfoLevel
	switch {
	case verbose == 1:
		level = logrus.DebugLevel
	case verbose >= 2:
		level = logrus.TraceLevel
	}

	logOptions := pfxlog.DefaultOptions().SetTrimPrefix("github.com/openziti/")
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		logOptions = logOptions.NoColor()
	}
	pfxlog.GlobalInit(level, logOptions)
}

func loadConfig(options *rootOptions) (*vortex.Config, error) {
	config := vortex.NewConfig()

	if options.configFile != "" {
		var err error
		if config, err = vortex.LoadConfigFile(options.configFile); err != nil {
			return nil, err
		}
	}

	if options.fileServer {
		listings := true
		config.Statics = append(config.Statics, &vortex.StaticConfig{
			Route:    "/",
			Path:     ".",
			Listings: &listings,
		})
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func run(options *rootOptions) error {
	initLogging(options.verbose)

	config, err := loadConfig(options)
	if err != nil {
		return err
	}

	instance, err := vortex.NewInstance(config)
	if err != nil {
		return err
	}

	if err = instance.Build(); err != nil {
		return err
	}

	errC := make(chan error, 1)
	go func() {
		errC <- instance.Start()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-errC:
		return err
	case sig := <-signals:
		pfxlog.Logger().Infof("received %s, shutting down", sig)
		instance.Shutdown()
		return <-errC
	}
}
