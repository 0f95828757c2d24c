// Command relayd runs the chat relay server: the presence and
// message-routing core behind a websocket gateway, backed by a local
// SQLite directory.
package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/ovachat/relay"
	"github.com/ovachat/relay/config"
	"github.com/ovachat/relay/directory"
	"github.com/ovachat/relay/gateway"
	"github.com/ovachat/relay/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	store, err := directory.OpenSQLite(cfg.DBPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open directory store")
	}
	defer store.Close()

	core := relay.New(store)
	m := metrics.New()
	server := gateway.NewServer(core, store, cfg, m)

	if err := server.Run(); err != nil {
		logrus.WithError(err).Fatal("Gateway terminated")
	}
}
