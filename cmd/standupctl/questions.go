package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nikhilsahni7/StandupX/ordering"
	"github.com/spf13/cobra"
)

func (a *app) questionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List and arrange the questions of a ceremony",
	}
	cmd.AddCommand(
		a.questionsListCmd(),
		a.questionsAttachCmd(),
		a.questionsDetachCmd(),
		a.questionsReorderCmd(),
		a.questionsMoveCmd(),
	)
	return cmd
}

func (a *app) questionsListCmd() *cobra.Command {
	var ceremonyID uint
	var available bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the ceremony's questions in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.api.LoadWorkspace(cmd.Context(), ceremonyID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if available {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTYPE\tTEXT")
				for _, q := range ws.Available() {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", q.ID, q.QuestionType, q.Text)
				}
				return tw.Flush()
			}
			items, err := ws.Items()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (%d questions)\n", ws.Ceremony.Name, len(items))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tID\tREQUIRED\tTYPE\tTEXT")
			for _, it := range items {
				fmt.Fprintf(tw, "%d\t%d\t%t\t%s\t%s\n",
					it.CeremonyQuestion.OrderIndex, it.Question.ID, it.Required(), it.Question.QuestionType, it.Question.Text)
			}
			return tw.Flush()
		},
	}
	ceremonyFlag(cmd, &ceremonyID)
	cmd.Flags().BoolVar(&available, "available", false, "list catalog questions not yet attached")
	return cmd
}

func (a *app) questionsAttachCmd() *cobra.Command {
	var (
		ceremonyID uint
		at         int
		required   bool
	)
	cmd := &cobra.Command{
		Use:   "attach QUESTION_ID...",
		Short: "Attach catalog questions, appending or inserting at --at",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			ed, err := a.editor(cmd, ceremonyID)
			if err != nil {
				return err
			}
			res, err := ed.AttachMany(cmd.Context(), ids, at, required)
			printBulk(cmd.OutOrStdout(), "attached", res)
			printOrder(cmd.OutOrStdout(), ed)
			return err
		},
	}
	ceremonyFlag(cmd, &ceremonyID)
	cmd.Flags().IntVar(&at, "at", 0, "1-based position of the first question (default: append)")
	cmd.Flags().BoolVar(&required, "required", false, "require an answer")
	return cmd
}

func (a *app) questionsDetachCmd() *cobra.Command {
	var ceremonyID uint
	cmd := &cobra.Command{
		Use:   "detach QUESTION_ID...",
		Short: "Remove questions from the ceremony",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			ed, err := a.editor(cmd, ceremonyID)
			if err != nil {
				return err
			}
			res, err := ed.DetachMany(cmd.Context(), ids)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "detached %d question(s)\n", len(res.Removed))
			for _, f := range res.Failed {
				fmt.Fprintf(out, "  question %d: %s\n", f.QuestionID, f.Message)
			}
			printOrder(out, ed)
			return err
		},
	}
	ceremonyFlag(cmd, &ceremonyID)
	return cmd
}

func (a *app) questionsReorderCmd() *cobra.Command {
	var ceremonyID uint
	cmd := &cobra.Command{
		Use:   "reorder QUESTION_ID...",
		Short: "Set the full question order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			ed, err := a.editor(cmd, ceremonyID)
			if err != nil {
				return err
			}
			err = ed.Reorder(cmd.Context(), ids)
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "reordered %d question(s)\n", len(ids))
			}
			printOrder(cmd.OutOrStdout(), ed)
			return err
		},
	}
	ceremonyFlag(cmd, &ceremonyID)
	return cmd
}

func (a *app) questionsMoveCmd() *cobra.Command {
	var ceremonyID uint
	cmd := &cobra.Command{
		Use:   "move QUESTION_ID up|down",
		Short: "Swap a question with its neighbour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			dir, err := ordering.ParseDirection(args[1])
			if err != nil {
				return err
			}
			ed, err := a.editor(cmd, ceremonyID)
			if err != nil {
				return err
			}
			err = ed.MoveOne(cmd.Context(), id, dir)
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "moved question %d %s\n", id, dir)
			}
			printOrder(cmd.OutOrStdout(), ed)
			return err
		},
	}
	ceremonyFlag(cmd, &ceremonyID)
	return cmd
}

// printOrder shows the order the editor last loaded from the server.
func printOrder(w io.Writer, ed *ordering.Editor) {
	fmt.Fprintln(w, "current order:")
	for _, cq := range ed.Questions() {
		req := ""
		if cq.IsRequired {
			req = " (required)"
		}
		fmt.Fprintf(w, "  #%d question %d%s\n", cq.OrderIndex, cq.QuestionID, req)
	}
}

func printBulk(w io.Writer, verb string, res ordering.BulkResult) {
	fmt.Fprintf(w, "%s %d question(s)\n", verb, len(res.Succeeded))
	for _, cq := range res.Succeeded {
		fmt.Fprintf(w, "  #%d question %d\n", cq.OrderIndex, cq.QuestionID)
	}
	for _, f := range res.Failed {
		label := f.Text
		if label == "" {
			label = fmt.Sprintf("question %d", f.QuestionID)
		}
		fmt.Fprintf(w, "  failed item %d (%s): %s\n", f.Position, label, f.Message)
	}
}
