package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gramwave/gramwave/internal/clock"
	"github.com/gramwave/gramwave/internal/config"
	"github.com/gramwave/gramwave/internal/seed"
	"github.com/gramwave/gramwave/internal/server"
	"github.com/gramwave/gramwave/pkg/db"
	"github.com/gramwave/gramwave/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		fx.Provide(config.NewPricingConfigHolder),
		db.Module,
		clock.Module,
		server.Module,
		seed.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
