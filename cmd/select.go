package cmd

import (
	"errors"
	"fmt"

	"github.com/smazurov/camsession/internal/resolution"
	"github.com/spf13/cobra"
)

// CreateSelectCmd creates the select command.
func CreateSelectCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "select WxH [WxH...]",
		Short: "Pick the candidate size closest to a target",
		Long: `Runs the capture size selector: the candidate whose area is closest to the target ` +
			`area wins, and the first candidate wins a tie.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			want, err := resolution.Parse(target)
			if err != nil {
				return err
			}
			candidates := make([]resolution.Size, 0, len(args))
			for _, arg := range args {
				s, err := resolution.Parse(arg)
				if err != nil {
					return err
				}
				candidates = append(candidates, s)
			}

			best, ok := resolution.Closest(candidates, want)
			if !ok {
				return errors.New("no candidate")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (area error %d)\n", best, resolution.Error(best, want))
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "1920x1080", "Target size")
	return cmd
}
