package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/portman/pkg/statusdb"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}
}

func runList(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db := statusdb.New()
	if err := db.Load(cfg.StatusDBPath()); err != nil {
		return err
	}

	installed := db.InstalledPackages()
	if len(installed) == 0 {
		fmt.Println("No packages are installed.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PACKAGE\tVERSION\tDESCRIPTION")
	for _, pkg := range installed {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", pkg.Spec(), pkg.Version, pkg.Description)
	}
	return w.Flush()
}
