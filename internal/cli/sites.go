package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List configured site profiles",
	RunE:  runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

func runSites(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	profiles, err := initProfiles(cfg)
	if err != nil {
		return fmt.Errorf("load site profiles: %w", err)
	}

	all := profiles.All()
	if len(all) == 0 {
		fmt.Printf("No site profiles configured. Add YAML profiles under %s.\n", cfg.Profiles.Dir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SITE\tRECIPIENTS\tSUBJECT\n")
	for _, p := range all {
		subject := p.Subject
		if subject == "" {
			subject = "(default)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Site, strings.Join(p.Recipients, ", "), subject)
	}
	w.Flush()

	return nil
}
