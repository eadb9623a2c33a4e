package gallery

import (
	"context"
	"time"
)

// Autoplay advances to the next image every AutoplayInterval while autoplay
// is switched on, handing each new frame to onFrame. Ticks that land while
// autoplay is off are skipped, so ToggleAutoplay pauses and resumes the
// loop. It returns ctx.Err() once ctx is done.
func (g *Gallery) Autoplay(ctx context.Context, onFrame func(Frame)) error {
	ticker := time.NewTicker(g.AutoplayInterval)
	defer ticker.Stop()

	g.Log.Debug().Dur("interval", g.AutoplayInterval).Msg("autoplay loop starting")

	for {
		select {
		case <-ctx.Done():
			g.Log.Debug().Msg("autoplay loop stopping")
			return ctx.Err()

		case <-ticker.C:
			if !g.Autoplaying() {
				continue
			}
			g.Next()
			f, _ := g.Show(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			onFrame(f)
		}
	}
}
