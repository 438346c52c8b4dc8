package cmd

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lecsum/internal/quiz"
	"github.com/abhisek/lecsum/internal/store"
	"github.com/abhisek/lecsum/internal/ui/theme"
)

var attemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "Inspect graded attempts",
}

var attemptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attempts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		retryOnly, _ := cmd.Flags().GetBool("retry-only")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(cmd, a)

		attempts, err := a.Service.ListAttempts(cmd.Context(), store.AttemptListOpts{
			PageOpts:  store.PageOpts{Limit: limit},
			RetryOnly: retryOnly,
		})
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No attempts yet.")
			return nil
		}

		t := newTable("ID", "Target", "Score", "Correct", "When")
		for _, at := range attempts {
			t.Row(
				strconv.FormatInt(at.ID, 10),
				at.Target.String(),
				theme.Score(at.Score),
				fmt.Sprintf("%d/%d", at.Correct, at.Total),
				at.CreatedAt.Local().Format(timeLayout),
			)
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

var attemptsShowCmd = &cobra.Command{
	Use:   "show <attempt-id>",
	Short: "Show an attempt with its per-question results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(cmd, a)

		at, err := a.Service.GetAttempt(cmd.Context(), id)
		if err != nil {
			return err
		}
		printAttempt(cmd.OutOrStdout(), at)
		return nil
	},
}

var wrongCmd = &cobra.Command{
	Use:   "wrong",
	Short: "Review wrong answers",
}

var wrongListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent wrong answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		docID, _ := cmd.Flags().GetInt64("doc")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(cmd, a)

		wrong, err := a.Service.ListWrongAnswers(cmd.Context(), store.WrongAnswerOpts{
			PageOpts:   store.PageOpts{Limit: limit, Offset: offset},
			DocumentID: docID,
		})
		if err != nil {
			return err
		}
		if len(wrong) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No wrong answers. Nice work!")
			return nil
		}

		t := newTable("Question ID", "Document", "Question", "Your answer", "Correct", "Attempt")
		for _, wa := range wrong {
			t.Row(
				strconv.FormatInt(wa.Quiz.ID, 10),
				truncate(wa.DocumentName, 20),
				truncate(wa.Quiz.Question, 50),
				truncate(wa.UserAnswer, 20),
				truncate(wa.Quiz.CorrectAnswer, 20),
				strconv.FormatInt(wa.AttemptID, 10),
			)
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), t.String())
		lipgloss.Fprintln(cmd.OutOrStdout(), theme.Hint.Render("Practise them with: lecsum retry create <question-id>..."))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(cmd, a)

		attempts, err := a.Service.ListAttempts(cmd.Context(), store.AttemptListOpts{})
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No attempts yet.")
			return nil
		}

		s := summarize(attempts)
		w := cmd.OutOrStdout()
		lipgloss.Fprintln(w, theme.Title.Render("Learning statistics"))
		fmt.Fprintf(w, "Attempts:        %d (%d retries)\n", s.attempts, s.retries)
		fmt.Fprintf(w, "Questions:       %d answered, %d correct\n", s.answered, s.correct)
		lipgloss.Fprintf(w, "Overall score:   %s\n", theme.Score(s.overall))
		lipgloss.Fprintf(w, "Latest attempt:  %s\n", theme.Score(s.latest))
		lipgloss.Fprintf(w, "Best attempt:    %s\n", theme.Score(s.best))
		return nil
	},
}

type summary struct {
	attempts, retries int
	answered, correct int
	overall           int
	latest, best      int
}

// summarize aggregates attempts listed newest first.
func summarize(attempts []quiz.Attempt) summary {
	var s summary
	for i, at := range attempts {
		s.attempts++
		if quiz.IsRetry(at.Target) {
			s.retries++
		}
		s.answered += at.Total
		s.correct += at.Correct
		if i == 0 {
			s.latest = at.Score
		}
		if at.Score > s.best {
			s.best = at.Score
		}
	}
	s.overall = quiz.Score(s.correct, s.answered)
	return s
}

func init() {
	attemptsListCmd.Flags().IntP("limit", "n", 20, "Number of attempts to show")
	attemptsListCmd.Flags().Bool("retry-only", false, "Only show attempts at retry sets")
	wrongListCmd.Flags().IntP("limit", "n", 20, "Number of wrong answers to show")
	wrongListCmd.Flags().Int("offset", 0, "Number of wrong answers to skip")
	wrongListCmd.Flags().Int64("doc", 0, "Only wrong answers for this document id")

	attemptsCmd.AddCommand(attemptsListCmd)
	attemptsCmd.AddCommand(attemptsShowCmd)
	wrongCmd.AddCommand(wrongListCmd)
}
