package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lecsum/internal/quiz"
	"github.com/abhisek/lecsum/internal/service"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Practise missed questions again",
}

var retryCreateCmd = &cobra.Command{
	Use:   "create <question-id>...",
	Short: "Generate similar questions for missed ones",
	Long: `Generate a retry set with new questions modelled on each missed
question. Find missed question ids with: lecsum wrong list`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(cmd, a)
		if err := a.RequireLLM(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Generating practice questions for %d missed question(s)...\n", len(ids))
		resp, err := a.Service.CreateRetry(cmd.Context(), service.CreateRetryRequest{QuestionIDs: ids})
		if err != nil {
			return err
		}
		printRetry(cmd.OutOrStdout(), resp)
		fmt.Fprintf(cmd.OutOrStdout(), "Grade it with: lecsum retry grade %d\n", resp.RetrySetID)
		return nil
	},
}

var retryShowCmd = &cobra.Command{
	Use:   "show <retry-set-id>",
	Short: "Show a retry set",
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

		resp, err := a.Service.GetRetry(cmd.Context(), id)
		if err != nil {
			return err
		}
		printRetry(cmd.OutOrStdout(), resp)
		return nil
	},
}

var retryGradeCmd = &cobra.Command{
	Use:   "grade <retry-set-id> [answer...]",
	Short: "Grade answers to a retry set",
	Long: `Grade answers to a retry set, one argument per question in set order.
Without answers each question is asked on stdin.`,
	Args: cobra.MinimumNArgs(1),
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
		if err := a.RequireLLM(); err != nil {
			return err
		}

		rs, err := a.Service.GetRetry(cmd.Context(), id)
		if err != nil {
			return err
		}
		items := make([]quiz.Item, len(rs.Items))
		for i, it := range rs.Items {
			items[i] = it.Item
		}
		answers, err := gatherAnswers(cmd, items, args[1:])
		if err != nil {
			return err
		}

		resp, err := a.Service.GradeRetry(cmd.Context(), service.RetryGradeRequest{
			RetrySetID:  rs.RetrySetID,
			QuestionIDs: itemIDs(items),
			Answers:     answers,
		})
		if err != nil {
			return err
		}
		printGrade(cmd.OutOrStdout(), resp)
		return nil
	},
}

func init() {
	retryCmd.AddCommand(retryCreateCmd)
	retryCmd.AddCommand(retryShowCmd)
	retryCmd.AddCommand(retryGradeCmd)
}
