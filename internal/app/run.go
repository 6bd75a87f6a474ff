package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/morphgrid/internal/ctxlog"
	"github.com/vk/morphgrid/internal/engine"
)

// Run executes the loaded model and writes the resulting grid to the
// application's output writer.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	seed := uint64(a.config.Seed)
	if a.config.Seed < 0 {
		seed = uint64(time.Now().UnixNano())
		a.logger.Debug("No seed configured, derived one from the clock.")
	}

	ip := engine.New(a.model.Root, a.model.Grid)
	if a.model.Origin {
		ip = engine.NewWithOrigin(a.model.Root, a.model.Grid)
	}

	a.logger.Info("🎲 Starting run.", "seed", seed, "steps", a.config.Steps)
	turns, err := ip.Run(ctx, seed, a.config.Steps)
	if err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	a.logger.Info("🏁 Run finished.", "turns", turns, "rewrites", len(ip.Changes()))

	a.writeGrid()
	a.logger.Debug("App.Run method finished.")
	return nil
}

// writeGrid prints the final state as rows of symbols, depth layers
// separated by blank lines.
func (a *App) writeGrid() {
	g := a.model.Grid
	row := make([]rune, g.MX)
	for z := 0; z < g.MZ; z++ {
		if z > 0 {
			fmt.Fprintln(a.outW)
		}
		for y := 0; y < g.MY; y++ {
			for x := 0; x < g.MX; x++ {
				row[x] = g.Characters[g.State[g.Index(x, y, z)]]
			}
			fmt.Fprintln(a.outW, string(row))
		}
	}
}
