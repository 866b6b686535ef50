package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/glosa/internal/rules"
)

var rulesJSON bool

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect forbidden-term rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the forbidden-term rules in effect",
	Long: `List the rules from audit.rules_file, or the built-in rules when no file
is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		ruleSet, err := rules.Resolve(cfg.Audit.RulesFile)
		if err != nil {
			return err
		}

		if rulesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ruleSet)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TERM\tSUGGESTION\tREASON\tREFERENCE")
		for _, r := range ruleSet {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Term, r.Suggestion, r.Reason, r.Reference)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)

	rulesListCmd.Flags().BoolVar(&rulesJSON, "json", false, "print rules as JSON")
}
