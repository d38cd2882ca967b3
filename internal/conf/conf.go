package conf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/jinzhu/copier"
	"github.com/yola1107/kratos/v2/config"
	"github.com/yola1107/kratos/v2/config/file"
	_ "github.com/yola1107/kratos/v2/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/yola1107/twisted/internal/model"
	"github.com/yola1107/twisted/pkg/zlog"
)

const (
	Name      = "twisted"
	Version   = "v0.1.0"
	EnvPrefix = "TWISTED_"
)

type Bootstrap struct {
	Server    *Server      `json:"server" yaml:"server" envPrefix:"SERVER_"`
	Data      *Data        `json:"data" yaml:"data" envPrefix:"DATA_"`
	Game      *Game        `json:"game" yaml:"game" envPrefix:"GAME_"`
	Lifecycle *Lifecycle   `json:"lifecycle" yaml:"lifecycle" envPrefix:"LIFECYCLE_"`
	Loop      *Loop        `json:"loop" yaml:"loop" envPrefix:"LOOP_"`
	Log       *zlog.Config `json:"log" yaml:"log" envPrefix:"LOG_"`
}

type Server struct {
	Websocket *Websocket `json:"websocket" yaml:"websocket" envPrefix:"WS_"`
}

type Websocket struct {
	Network   string   `json:"network" yaml:"network"`
	Addr      string   `json:"addr" yaml:"addr" env:"ADDR"`
	Path      string   `json:"path" yaml:"path" env:"PATH"`
	Timeout   Duration `json:"timeout" yaml:"timeout" env:"TIMEOUT"`
	MaxConn   int      `json:"max_conn" yaml:"max_conn" env:"MAX_CONN"`
	RateLimit float64  `json:"rate_limit" yaml:"rate_limit" env:"RATE_LIMIT"` // 每个会话每秒命令数
	Burst     int      `json:"burst" yaml:"burst" env:"BURST"`
}

type Data struct {
	Snapshot *Snapshot `json:"snapshot" yaml:"snapshot" envPrefix:"SNAPSHOT_"`
}

type Snapshot struct {
	Driver  string   `json:"driver" yaml:"driver" env:"DRIVER"` // memory | redis | sqlite | postgres
	DSN     string   `json:"dsn" yaml:"dsn" env:"DSN"`
	Redis   *Redis   `json:"redis" yaml:"redis" envPrefix:"REDIS_"`
	Timeout Duration `json:"timeout" yaml:"timeout" env:"TIMEOUT"`
}

type Redis struct {
	Addr     string `json:"addr" yaml:"addr" env:"ADDR"`
	Password string `json:"password" yaml:"password" env:"PASSWORD"`
	DB       int    `json:"db" yaml:"db" env:"DB"`
}

// Game 牌局规则
type Game struct {
	Values       int   `json:"values" yaml:"values"`
	Copies       int   `json:"copies" yaml:"copies"`
	Singleton    int   `json:"singleton" yaml:"singleton"`
	BlackHoles   int   `json:"black_holes" yaml:"black_holes"`
	HandSize     int   `json:"hand_size" yaml:"hand_size" env:"HAND_SIZE"`
	MinPlayers   int   `json:"min_players" yaml:"min_players" env:"MIN_PLAYERS"`
	RequireReady bool  `json:"require_ready" yaml:"require_ready" env:"REQUIRE_READY"`
	Seed         int64 `json:"seed" yaml:"seed" env:"SEED"`
}

// Lifecycle 闲置大厅回收
type Lifecycle struct {
	Interval  Duration `json:"interval" yaml:"interval" env:"INTERVAL"`
	Threshold Duration `json:"threshold" yaml:"threshold" env:"THRESHOLD"`
}

type Loop struct {
	Pending  int `json:"pending" yaml:"pending" env:"PENDING"`
	PoolSize int `json:"pool_size" yaml:"pool_size" env:"POOL_SIZE"`
}

func DefaultConfig() *Bootstrap {
	rules := model.BaseRules()
	return &Bootstrap{
		Server: &Server{Websocket: &Websocket{
			Network:   "tcp",
			Addr:      "0.0.0.0:3102",
			Path:      "/",
			Timeout:   Duration(10 * time.Second),
			MaxConn:   10000,
			RateLimit: 20,
			Burst:     40,
		}},
		Data: &Data{Snapshot: &Snapshot{
			Driver:  "memory",
			Redis:   &Redis{Addr: "127.0.0.1:6379"},
			Timeout: Duration(3 * time.Second),
		}},
		Game: &Game{
			Values:     rules.Values,
			Copies:     rules.Copies,
			Singleton:  rules.Singleton,
			BlackHoles: rules.BlackHoles,
			HandSize:   rules.HandSize,
			MinPlayers: rules.MinPlayers,
		},
		Lifecycle: &Lifecycle{
			Interval:  Duration(time.Minute),
			Threshold: Duration(30 * time.Minute),
		},
		Loop: &Loop{Pending: 1024, PoolSize: 64},
		Log:  zlog.DefaultConfig(),
	}
}

// Load reads the file (or directory) at path, fills unset values with
// DefaultConfig and applies TWISTED_* environment overrides.
func Load(path string) (config.Config, *Bootstrap, error) {
	c := config.New(config.WithSource(file.NewSource(path)))
	if err := c.Load(); err != nil {
		return nil, nil, fmt.Errorf("load config %q: %w", path, err)
	}
	var bc Bootstrap
	if err := c.Scan(&bc); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("scan config: %w", err)
	}
	if err := bc.complete(); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, &bc, nil
}

// complete applies defaults, environment overrides and validation in that order.
func (bc *Bootstrap) complete() error {
	if err := mergo.Merge(bc, DefaultConfig()); err != nil {
		return fmt.Errorf("merge defaults: %w", err)
	}
	if err := env.ParseWithOptions(bc, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	return bc.Validate()
}

func (bc *Bootstrap) Validate() error {
	var errs []error
	if bc.Server.Websocket.Addr == "" {
		errs = append(errs, errors.New("server.websocket.addr is required"))
	}
	if !strings.HasPrefix(bc.Server.Websocket.Path, "/") {
		errs = append(errs, fmt.Errorf("server.websocket.path %q must start with /", bc.Server.Websocket.Path))
	}
	switch strings.ToLower(bc.Data.Snapshot.Driver) {
	case "memory", "redis":
	case "sqlite", "postgres":
		if bc.Data.Snapshot.DSN == "" {
			errs = append(errs, fmt.Errorf("data.snapshot.dsn is required for %s", bc.Data.Snapshot.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown data.snapshot.driver %q", bc.Data.Snapshot.Driver))
	}
	g := bc.Game
	if g.HandSize <= 0 || g.MinPlayers <= 0 {
		errs = append(errs, errors.New("game.hand_size and game.min_players must be positive"))
	}
	if g.Values <= 0 || g.Copies <= 0 {
		errs = append(errs, errors.New("game.values and game.copies must be positive"))
	}
	if bc.Lifecycle.Interval <= 0 || bc.Lifecycle.Threshold <= 0 {
		errs = append(errs, errors.New("lifecycle.interval and lifecycle.threshold must be positive"))
	}
	return errors.Join(errs...)
}

// Rules builds the rule set described by the game section.
func (g *Game) Rules() model.RuleSet {
	rules := model.BaseRules()
	rules.Values = g.Values
	rules.Copies = g.Copies
	rules.Singleton = g.Singleton
	rules.BlackHoles = g.BlackHoles
	rules.HandSize = g.HandSize
	rules.MinPlayers = g.MinPlayers
	return rules
}

// Dump renders the effective configuration for the startup log, secrets masked.
func (bc *Bootstrap) Dump() string {
	var cp Bootstrap
	if err := copier.CopyWithOption(&cp, bc, copier.Option{DeepCopy: true}); err != nil {
		return err.Error()
	}
	if cp.Data != nil && cp.Data.Snapshot != nil {
		if r := cp.Data.Snapshot.Redis; r != nil && r.Password != "" {
			r.Password = "******"
		}
		if cp.Data.Snapshot.DSN != "" {
			cp.Data.Snapshot.DSN = "******"
		}
	}
	out, err := yaml.Marshal(&cp)
	if err != nil {
		return err.Error()
	}
	return string(out)
}

// Duration accepts "90s" style strings or plain nanoseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	return d.UnmarshalText([]byte(strings.Trim(string(b), `"`)))
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}
