package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSuggestCmd() *cobra.Command {
	var s settings

	cmd := &cobra.Command{
		Use:   "suggest <series name>",
		Short: "Suggest official series names for a search",
		Long: `Asks the provider for the official names a series is published under.
The name as typed is always among the suggestions.`,
		Example: `  mangacat suggest "attack on titan"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(cmd)
			if err != nil {
				return err
			}
			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			name := strings.Join(args, " ")
			for i, suggestion := range p.orchestrator.Suggest(cmd.Context(), name) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, suggestion)
			}
			return nil
		},
	}

	s.register(cmd)
	return cmd
}
