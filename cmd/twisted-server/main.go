package main

import (
	"flag"
	"os"

	"github.com/yola1107/kratos/v2"
	"github.com/yola1107/kratos/v2/config"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/twisted/internal/conf"
	"github.com/yola1107/twisted/internal/server"
	"github.com/yola1107/twisted/internal/transport/ws"
	"github.com/yola1107/twisted/pkg/zlog"
)

var (
	Name     = conf.Name
	Version  = conf.Version
	flagconf string // -conf path
	id, _    = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs", "config path, e.g. -conf config.yaml")
}

func newApp(logger log.Logger, wss *ws.Server, rt *server.Runtime) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			rt,
			wss,
		),
	)
}

func main() {
	flag.Parse()

	c, bc, err := conf.Load(flagconf)
	if err != nil {
		panic(err)
	}
	defer c.Close()

	logger := zlog.New(bc.Log)
	log.SetLogger(logger)
	defer logger.Close()

	log.Infof("effective config:\n%s", bc.Dump())
	if err := watchLogLevel(c, logger); err != nil {
		panic(err)
	}

	app, cleanup, err := wireApp(bc.Server, bc.Data, bc.Game, bc.Lifecycle, bc.Loop, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}

// watchLogLevel 热更新日志级别
func watchLogLevel(c config.Config, logger *zlog.Logger) error {
	return c.Watch("log.level", func(key string, v config.Value) {
		level, err := v.String()
		if err != nil {
			log.Errorf("[config] scan failed: key=%q, err=%v", key, err)
			return
		}
		if err := logger.SetLevel(level); err != nil {
			log.Errorf("[config] %q rejected: %v", key, err)
			return
		}
		log.Warnf("[config] [%q] updated: %s", key, level)
	})
}
