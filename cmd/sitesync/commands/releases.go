package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitesync/internal/history"
)

// ReleasesCmd runs one release sync.
type ReleasesCmd struct {
	Force bool `help:"Download assets even when the local version matches"`
}

func (r *ReleasesCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc := newServices(cfg, nil, r.Force)
	defer svc.Close()

	out := runOnce(context.Background(), svc, releasesTask("releases", svc))
	if out.Err != nil {
		return out.Err
	}
	fmt.Printf("Release sync finished in state %s (version %s)\n", out.State, out.Version)
	if out.Status == history.OutcomeWarning {
		fmt.Println("Some assets failed to download; see the log for details")
	}
	return nil
}
