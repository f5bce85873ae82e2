package web

import (
	"github.com/ghaggin/fluidbalance/internal/auth"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		NewNavigator,
		func(n *Navigator) auth.Navigator { return n },
		New,
	),
)
