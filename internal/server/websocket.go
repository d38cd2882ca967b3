package server

import (
	"github.com/yola1107/twisted/internal/conf"
	"github.com/yola1107/twisted/internal/transport/ws"
)

// NewWebsocketServer new a websocket server.
func NewWebsocketServer(c *conf.Server, h ws.Handler) *ws.Server {
	var opts []ws.ServerOption
	if c.Websocket.Network != "" {
		opts = append(opts, ws.Network(c.Websocket.Network))
	}
	if c.Websocket.Addr != "" {
		opts = append(opts, ws.Address(c.Websocket.Addr))
	}
	if c.Websocket.Path != "" {
		opts = append(opts, ws.Path(c.Websocket.Path))
	}
	if c.Websocket.Timeout > 0 {
		opts = append(opts, ws.Timeout(c.Websocket.Timeout.Std()))
	}
	if c.Websocket.MaxConn > 0 {
		opts = append(opts, ws.MaxConnLimit(int32(c.Websocket.MaxConn)))
	}
	return ws.NewServer(h, opts...)
}
