package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/portman/pkg/planner"
	"github.com/glorpus-work/portman/pkg/ports"
	"github.com/glorpus-work/portman/pkg/statusdb"
)

// NewOutdatedCmd creates the outdated command.
func NewOutdatedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "outdated",
		Short: "List installed packages whose port recipe changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOutdated(cmd)
		},
	}
}

func runOutdated(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db := statusdb.New()
	if err := db.Load(cfg.StatusDBPath()); err != nil {
		return err
	}

	outdated, err := planner.FindOutdated(ports.NewFSProvider(cfg.Settings.PortsDir), db)
	if err != nil {
		return err
	}
	if len(outdated) == 0 {
		fmt.Println("All installed packages are up-to-date with the local portfiles.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PACKAGE\tINSTALLED\tPORTFILE")
	for _, entry := range outdated {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Spec, entry.InstalledVersion, entry.RecipeVersion)
	}
	return w.Flush()
}
