package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/yola1107/kratos/v2/log"
	"nhooyr.io/websocket"

	"github.com/yola1107/twisted/internal/biz"
	"github.com/yola1107/twisted/pkg/zlog"
)

const (
	defaultURL  = "ws://127.0.0.1:3102/"
	connTimeout = 10 * time.Second
	msgTimeout  = 5 * time.Second
)

var (
	url   = flag.String("url", defaultURL, "WebSocket URL")
	level = flag.String("level", "info", "log level")
	json  = jsoniter.ConfigCompatibleWithStandardLibrary
)

// 每行一条命令: <Command> [json payload]
//
//	UserConnect {"username":"alice"}
//	CreateLobby {"lobbyId":"8c0f6c2e-1b3d-4a8e-9b53-0a8f0c1d2e3f"}
//	Ping
func main() {
	flag.Parse()

	cfg := zlog.DefaultConfig()
	cfg.Level = *level
	logger := zlog.New(cfg)
	log.SetLogger(logger)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, connTimeout)
	conn, _, err := websocket.Dial(dialCtx, *url, nil)
	cancel()
	if err != nil {
		log.Fatalf("dial %s: %v", *url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	log.Infof("connected to %s. commands: %s", *url, strings.Join(biz.Commands(), " "))

	go readLoop(ctx, conn, stop)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		frame, err := encode(line)
		if err != nil {
			log.Warnf("skip line: %v", err)
			continue
		}
		if err := send(ctx, conn, frame); err != nil {
			log.Errorf("send: %v", err)
			return
		}
	}
}

// encode turns "Command {json}" into an inbound envelope.
func encode(line string) ([]byte, error) {
	name, payload, _ := strings.Cut(line, " ")
	payload = strings.TrimSpace(payload)
	if payload == "" {
		payload = "{}"
	}
	if !json.Valid([]byte(payload)) {
		return nil, fmt.Errorf("payload of %s is not valid json", name)
	}
	return json.Marshal(map[string]any{
		"command": name,
		"payload": jsoniter.RawMessage(payload),
	})
}

func send(ctx context.Context, conn *websocket.Conn, frame []byte) error {
	ctx, cancel := context.WithTimeout(ctx, msgTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, frame)
}

func readLoop(ctx context.Context, conn *websocket.Conn, stop func()) {
	defer stop()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			var ce websocket.CloseError
			if errors.As(err, &ce) {
				log.Infof("closed by server: %d %s", ce.Code, ce.Reason)
			} else if ctx.Err() == nil {
				log.Errorf("read: %v", err)
			}
			return
		}
		var frame struct {
			Event string              `json:"event"`
			Data  jsoniter.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			fmt.Printf("<< %s\n", data)
			continue
		}
		fmt.Printf("<< %-20s %s\n", frame.Event, frame.Data)
	}
}
