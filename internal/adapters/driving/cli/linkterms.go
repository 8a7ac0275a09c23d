package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcorpus/lexindex-cli/internal/core/services"
)

var (
	linkDryRun      bool
	linkCorrections []string
)

var linkTermsCmd = &cobra.Command{
	Use:   "link-terms",
	Short: "Link English/French defined-term pairs",
	Long: `Matches defined terms across languages in three ordered passes:
exact section match on the counterpart hint, unique-in-document match,
and one-to-one co-occurrence for untagged terms. Unmatched terms are
reported with probable-typo diagnostics, never guessed.`,
	RunE: runLinkTerms,
}

func init() {
	linkTermsCmd.Flags().BoolVar(&linkDryRun, "dry-run", false,
		"report matches without writing links")
	linkTermsCmd.Flags().StringSliceVar(&linkCorrections, "correct", nil,
		"hint corrections as hint=replacement pairs")
	rootCmd.AddCommand(linkTermsCmd)
}

func runLinkTerms(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	p, err := getPipeline(ctx)
	if err != nil {
		return err
	}

	corrections, err := parseCorrections(linkCorrections)
	if err != nil {
		return err
	}

	linker := services.NewTermLinker(p.Terms)
	stats, err := linker.Run(ctx, services.LinkerConfig{
		DryRun:      linkDryRun,
		Corrections: corrections,
	})
	if stats != nil {
		printLinkStats(cmd, stats)
	}
	if err != nil {
		return fmt.Errorf("term linking failed: %w", err)
	}
	return nil
}

func parseCorrections(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	corrections := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		hint, replacement, ok := strings.Cut(pair, "=")
		if !ok || hint == "" {
			return nil, fmt.Errorf("invalid correction %q, want hint=replacement", pair)
		}
		corrections[hint] = replacement
	}
	return corrections, nil
}

func printLinkStats(cmd *cobra.Command, stats *services.LinkStats) {
	cmd.Printf("Terms loaded:     %d\n", stats.TermsLoaded)
	cmd.Printf("Already linked:   %d\n", stats.AlreadyLinked)
	cmd.Printf("Pass 1 links:     %d\n", stats.Pass1Links)
	cmd.Printf("Pass 2 links:     %d\n", stats.Pass2Links)
	cmd.Printf("Pass 3 links:     %d\n", stats.Pass3Links)
	cmd.Printf("Marker excluded:  %d\n", stats.MarkerExcluded)
	cmd.Printf("Ambiguous:        %d\n", stats.Ambiguous)
	cmd.Printf("Unmatched:        %d\n", stats.Unmatched)
	if stats.InvalidLanguage > 0 {
		cmd.Printf("Invalid language: %d\n", stats.InvalidLanguage)
	}

	for _, suspect := range stats.TypoSuspects {
		cmd.Printf("Probable typo in %s: term %d expects %q, found %q (term %d, %d edit(s))\n",
			suspect.DocumentID, suspect.TermID, suspect.Expected,
			suspect.Found, suspect.FoundTermID, suspect.EditDistance)
	}
}
