//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/google/wire"
	"github.com/yola1107/kratos/v2"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/twisted/internal/biz"
	"github.com/yola1107/twisted/internal/conf"
	"github.com/yola1107/twisted/internal/data"
	"github.com/yola1107/twisted/internal/lifecycle"
	"github.com/yola1107/twisted/internal/server"
	"github.com/yola1107/twisted/internal/service"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Game, *conf.Lifecycle, *conf.Loop, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(server.ProviderSet, data.ProviderSet, biz.ProviderSet, lifecycle.ProviderSet, service.ProviderSet, newApp))
}
