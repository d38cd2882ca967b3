package biz

import (
	"context"

	"github.com/yola1107/kratos/v2/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/yola1107/twisted/internal/biz"

type metrics struct {
	commands metric.Int64Counter
}

// newMetrics uses the global meter provider, a no-op until one is installed.
func newMetrics() *metrics {
	meter := otel.Meter(meterName)
	commands, err := meter.Int64Counter("twisted.commands",
		metric.WithDescription("Commands executed, by name and result reason."),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		otel.Handle(err)
	}
	return &metrics{commands: commands}
}

func (m *metrics) observe(ctx context.Context, name string, err error) {
	if m == nil || m.commands == nil {
		return
	}
	result := "OK"
	if err != nil {
		result = errors.FromError(err).Reason
	}
	m.commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", name),
		attribute.String("result", result),
	))
}
