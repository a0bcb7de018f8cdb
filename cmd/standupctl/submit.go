package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nikhilsahni7/StandupX/response"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) submitCmd() *cobra.Command {
	var (
		ceremonyID uint
		file       string
		draft      bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit answers from a YAML file",
		Long: `Reads answers from a YAML file, checks them against the ceremony's
questions and submits them. With --draft the answers are saved unchecked.

Example file:

  mood_rating: 7
  question_responses:
    - question_id: 12
      text_response: Finished the billing migration
    - question_id: 13
      selected_options: [none]`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := readSubmission(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			sub.CeremonyID = ceremonyID
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if draft {
				if err := a.api.SaveDraft(ctx, sub); err != nil {
					return err
				}
				fmt.Fprintln(out, "draft saved")
				return nil
			}

			ws, err := a.api.LoadWorkspace(ctx, ceremonyID)
			if err != nil {
				return err
			}
			items, err := ws.Items()
			if err != nil {
				return err
			}
			if err := response.Validate(items, sub); err != nil {
				printValidation(out, err)
				return err
			}

			resp, err := a.api.Submit(ctx, sub)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "submitted response %d with %d answer(s)\n", resp.ID, len(resp.QuestionResponses))
			return nil
		},
	}
	ceremonyFlag(cmd, &ceremonyID)
	cmd.Flags().StringVarP(&file, "file", "f", "-", "answers file, - for stdin")
	cmd.Flags().BoolVar(&draft, "draft", false, "save as a draft instead of submitting")
	return cmd
}

func readSubmission(stdin io.Reader, path string) (*response.Submission, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var sub response.Submission
	if err := yaml.NewDecoder(r).Decode(&sub); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("answers file is empty")
		}
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	return &sub, nil
}

func printValidation(w io.Writer, err error) {
	var verr *response.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for _, f := range verr.Fields {
		if f.QuestionID != 0 {
			fmt.Fprintf(w, "question %d %s: %s (%s)\n", f.QuestionID, f.Field, f.Message, f.Code)
		} else {
			fmt.Fprintf(w, "%s: %s (%s)\n", f.Field, f.Message, f.Code)
		}
	}
}
