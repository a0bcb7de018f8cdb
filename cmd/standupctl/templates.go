package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Browse and apply question templates",
	}
	cmd.AddCommand(a.templatesListCmd(), a.templatesApplyCmd())
	return cmd
}

func (a *app) templatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the template catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.api.Templates(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tQUESTIONS\tNAME")
			for _, t := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", t.ID, t.Category, len(t.Questions), t.Name)
			}
			return tw.Flush()
		},
	}
}

func (a *app) templatesApplyCmd() *cobra.Command {
	var (
		ceremonyID  uint
		at          int
		allRequired bool
	)
	cmd := &cobra.Command{
		Use:   "apply TEMPLATE_ID...",
		Short: "Create the templates' questions and attach them to the ceremony",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.api.ApplyTemplates(cmd.Context(), ceremonyID, args, at, allRequired)
			if err != nil {
				return err
			}
			printBulk(cmd.OutOrStdout(), "added", res)
			return res.Err()
		},
	}
	ceremonyFlag(cmd, &ceremonyID)
	cmd.Flags().IntVar(&at, "at", 0, "1-based position of the first question (default: append)")
	cmd.Flags().BoolVar(&allRequired, "all-required", false, "require an answer to every added question")
	return cmd
}
