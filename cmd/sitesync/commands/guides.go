package commands

import (
	"context"
	"fmt"
)

// GuidesCmd crawls documentation once.
type GuidesCmd struct{}

func (g *GuidesCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc := newServices(cfg, nil, false)
	defer svc.Close()

	out := runOnce(context.Background(), svc, guidesTask("guides", svc))
	if out.Err != nil {
		return out.Err
	}
	fmt.Printf("Guides catalog written to %s\n", cfg.Guides.Output)
	return nil
}
