package ws

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yola1107/kratos/v2/log"
	"github.com/yola1107/kratos/v2/transport"
)

var (
	_ transport.Server     = (*Server)(nil)
	_ transport.Endpointer = (*Server)(nil)
)

// ServerOption is a websocket server option.
type ServerOption func(*Server)

func Network(network string) ServerOption {
	return func(o *Server) { o.network = network }
}
func Address(addr string) ServerOption {
	return func(o *Server) { o.address = addr }
}
func Path(path string) ServerOption {
	return func(o *Server) { o.path = path }
}
func Endpoint(u *url.URL) ServerOption {
	return func(o *Server) { o.endpoint = u }
}
func TlsConf(tlsConfig *tls.Config) ServerOption {
	return func(o *Server) { o.tlsConf = tlsConfig }
}
func MaxConnLimit(maxConnLimit int32) ServerOption {
	return func(o *Server) { o.maxConnLimit = maxConnLimit }
}
func Timeout(d time.Duration) ServerOption {
	return func(o *Server) { o.timeout = d }
}
func Heartbeat(d, i, w time.Duration) ServerOption {
	return func(o *Server) {
		o.sessionConf.ReadDeadline, o.sessionConf.PingInterval, o.sessionConf.WriteTimeout = d, i, w
	}
}
func SentChanSize(size int) ServerOption {
	return func(o *Server) { o.sessionConf.SendChanSize = size }
}
func ReadLimit(n int64) ServerOption {
	return func(o *Server) { o.sessionConf.ReadLimit = n }
}

// Server accepts websocket connections and hands their text frames to a Handler.
type Server struct {
	*http.Server
	lis          net.Listener
	tlsConf      *tls.Config
	endpoint     *url.URL
	err          error
	path         string
	network      string
	address      string
	timeout      time.Duration
	maxConnLimit int32
	sessionConf  *SessionConfig
	upgrader     *websocket.Upgrader
	sessionMgr   *SessionManager
	handler      Handler
}

func NewServer(h Handler, opts ...ServerOption) *Server {
	srv := &Server{
		network: "tcp",
		address: ":0",
		path:    "/",
		timeout: 5 * time.Second,
		sessionConf: &SessionConfig{
			WriteTimeout: 10 * time.Second,
			PingInterval: 15 * time.Second,
			ReadDeadline: 60 * time.Second,
			SendChanSize: 128,
			ReadLimit:    64 << 10,
		},
		maxConnLimit: 10000,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessionMgr: NewSessionManager(),
		handler:    h,
	}
	for _, o := range opts {
		o(srv)
	}
	srv.upgrader.HandshakeTimeout = srv.timeout
	mux := http.NewServeMux()
	mux.Handle(srv.path, CORS(srv.handleConnections()))
	srv.Server = &http.Server{
		Addr:              srv.address,
		Handler:           mux,
		TLSConfig:         srv.tlsConf,
		ReadHeaderTimeout: srv.timeout,
	}
	return srv
}

func (s *Server) Sessions() *SessionManager {
	return s.sessionMgr
}

func (s *Server) Endpoint() (*url.URL, error) {
	if err := s.listenAndEndpoint(); err != nil {
		return nil, err
	}
	return s.endpoint, nil
}

func (s *Server) listenAndEndpoint() error {
	if s.lis == nil {
		lis, err := net.Listen(s.network, s.address)
		if err != nil {
			s.err = err
			return err
		}
		s.lis = lis
	}
	if s.endpoint == nil {
		scheme := "ws"
		if s.tlsConf != nil {
			scheme = "wss"
		}
		s.endpoint = &url.URL{Scheme: scheme, Host: advertised(s.address, s.lis), Path: s.path}
	}
	return s.err
}

// advertised keeps a configured host and falls back to the listener address
// when the host is empty or unspecified.
func advertised(address string, lis net.Listener) string {
	host, _, err := net.SplitHostPort(address)
	_, port, _ := net.SplitHostPort(lis.Addr().String())
	if err != nil || host == "" {
		return lis.Addr().String()
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		return net.JoinHostPort("127.0.0.1", port)
	}
	return net.JoinHostPort(host, port)
}

// Start start the websocket server.
func (s *Server) Start(ctx context.Context) error {
	if err := s.listenAndEndpoint(); err != nil {
		return err
	}
	s.BaseContext = func(net.Listener) context.Context {
		return ctx
	}
	log.Infof("[websocket] server listening on: %s%s", s.lis.Addr().String(), s.path)
	var err error
	if s.tlsConf != nil {
		err = s.ServeTLS(s.lis, "", "")
	} else {
		err = s.Serve(s.lis)
	}
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stop the websocket server.
func (s *Server) Stop(ctx context.Context) error {
	log.Info("[websocket] server stopping")

	// 停止HTTP服务器
	err := s.Shutdown(ctx)
	if s.lis != nil {
		_ = s.lis.Close() // 未 Serve 时监听器需手动关闭
	}

	// 关闭所有会话
	s.sessionMgr.CloseAllSessions()

	return err
}

func (s *Server) handleConnections() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cnt := s.sessionMgr.Len(); cnt >= s.maxConnLimit {
			w.WriteHeader(http.StatusServiceUnavailable)
			log.Warnf("[websocket] StatusServiceUnavailable. over maxConnections(%d)", cnt)
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Errorf("[websocket] upgrade error: %v", err)
			return
		}

		_ = NewSession(s, conn, s.sessionConf)
	}
}

func (s *Server) OnSessionOpen(sess *Session) {
	s.sessionMgr.Add(sess)
	s.handler.OnSessionOpen(sess)
}

func (s *Server) OnSessionClose(sess *Session) {
	s.handler.OnSessionClose(sess)
	s.sessionMgr.Delete(sess)
}

func (s *Server) OnMessage(sess *Session, data []byte) {
	s.handler.OnMessage(sess, data)
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Length, X-CSRF-Token, Token, session")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
