package xredis

import (
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// 默认配置值
const (
	defaultAddr        = "127.0.0.1:6379"
	defaultMinIdle     = 2
	defaultMaxIdle     = 8
	defaultPoolSize    = 16
	defaultDialTimeout = 3 * time.Second
	defaultMaxIdleTime = 5 * time.Minute
)

// ClientOption 配置函数类型
type ClientOption func(*redis.Options)

// NewClient 创建Redis客户端
func NewClient(opts ...ClientOption) *redis.Client {
	options := &redis.Options{
		Addr:            defaultAddr,
		PoolSize:        defaultPoolSize,
		MinIdleConns:    defaultMinIdle,
		MaxIdleConns:    defaultMaxIdle,
		DialTimeout:     defaultDialTimeout,
		ConnMaxIdleTime: defaultMaxIdleTime,
	}
	for _, opt := range opts {
		opt(options)
	}
	return redis.NewClient(options)
}

// WithAddress 设置Redis地址, 非 host:port 格式时忽略
func WithAddress(addr string) ClientOption {
	return func(o *redis.Options) {
		if _, _, err := net.SplitHostPort(addr); err == nil {
			o.Addr = addr
		}
	}
}

func WithPassword(pass string) ClientOption {
	return func(o *redis.Options) {
		o.Password = pass
	}
}

// WithDB 选择Redis数据库
func WithDB(db int) ClientOption {
	return func(o *redis.Options) {
		if db >= 0 {
			o.DB = db
		}
	}
}

func WithPoolSize(size int) ClientOption {
	return func(o *redis.Options) {
		if size > 0 {
			o.PoolSize = size
		}
	}
}

func WithDialTimeout(d time.Duration) ClientOption {
	return func(o *redis.Options) {
		if d > 0 {
			o.DialTimeout = d
		}
	}
}
