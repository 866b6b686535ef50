package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/glosa/internal/audit"
	"github.com/ppiankov/glosa/internal/model"
	"github.com/ppiankov/glosa/internal/rules"
)

var (
	fixWrite bool
	fixPatch bool
)

// fixCmd represents the fix command
var fixCmd = &cobra.Command{
	Use:   "fix <file>",
	Short: "Replace every forbidden term with its accepted wording",
	Long: `Fix applies the replacement of every forbidden term found in a chapter
and shows the resulting diff. The file is only modified with --write.

Example:
  glosa fix metodologia.html
  glosa fix metodologia.html --patch > metodologia.patch
  glosa fix metodologia.html --write`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)

	fixCmd.Flags().BoolVar(&fixWrite, "write", false, "write the fixed chapter back to the file")
	fixCmd.Flags().BoolVar(&fixPatch, "patch", false, "print a unified patch instead of the coloured diff")
}

func runFix(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	ruleSet, err := rules.Resolve(cfg.Audit.RulesFile)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read chapter: %w", err)
	}

	session := audit.NewSession(ruleSet, []model.Chapter{{ID: path, Title: path, Order: 1, Content: string(data)}},
		audit.Options{CharacterLimit: cfg.Audit.CharacterLimit})
	changes := session.Fix()

	if !changes.Changed() {
		fmt.Fprintf(os.Stderr, "✓ No forbidden terms in %s\n", path)
		return nil
	}

	if fixPatch {
		fmt.Print(changes.Patch)
	} else {
		fmt.Println(changes.Pretty())
	}

	fmt.Fprintf(os.Stderr, "\n%d term(s) replaced (+%d -%d characters)\n",
		len(session.Pending()), changes.Additions, changes.Deletions)

	if !fixWrite {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat chapter: %w", err)
	}
	if err := os.WriteFile(path, []byte(changes.After), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write chapter: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	return nil
}
