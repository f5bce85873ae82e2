package auth

import (
	"github.com/ghaggin/fluidbalance/internal/interceptor"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		NewClient,
		NewManager,
		func(m *Manager) interceptor.Session { return m },
	),
)
