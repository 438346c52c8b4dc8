package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lecsum/internal/quiz"
	"github.com/abhisek/lecsum/internal/service"
	"github.com/abhisek/lecsum/internal/ui/theme"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate, show and grade quizzes",
}

var quizGenerateCmd = &cobra.Command{
	Use:   "generate <document-id>",
	Short: "Generate a reviewed quiz from a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docID, err := parseID(args[0])
		if err != nil {
			return err
		}
		avoid, _ := cmd.Flags().GetStringArray("avoid")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(cmd, a)
		if err := a.RequireLLM(); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Drafting, reviewing and refining the quiz...")
		resp, err := a.Service.GenerateQuiz(cmd.Context(), service.GenerateQuizRequest{DocumentID: docID, RecentDigest: avoid})
		if err != nil {
			return err
		}

		lipgloss.Fprintln(w, theme.Title.Render(fmt.Sprintf("Quiz set #%d", resp.Set.ID)))
		review := "no changes required"
		if len(resp.Revised) > 0 {
			nums := make([]string, len(resp.Revised))
			for i, p := range resp.Revised {
				nums[i] = fmt.Sprint(p + 1)
			}
			review = "revised questions " + strings.Join(nums, ", ")
		}
		lipgloss.Fprintln(w, theme.Hint.Render("review: "+review))
		fmt.Fprintln(w)
		printItems(w, resp.Set.Items, false)
		fmt.Fprintf(w, "Grade it with: lecsum quiz grade %d\n", resp.Set.ID)
		return nil
	},
}

var quizShowCmd = &cobra.Command{
	Use:   "show <quiz-set-id>",
	Short: "Show a quiz set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		answers, _ := cmd.Flags().GetBool("answers")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(cmd, a)

		set, err := a.Service.GetQuizSet(cmd.Context(), id)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		lipgloss.Fprintf(w, "%s  document #%d  %s\n\n",
			theme.Title.Render(fmt.Sprintf("Quiz set #%d", set.ID)), set.DocumentID,
			theme.Hint.Render(set.CreatedAt.Local().Format(timeLayout)))
		printItems(w, set.Items, answers)
		return nil
	},
}

var quizGradeCmd = &cobra.Command{
	Use:   "grade <quiz-set-id> [answer...]",
	Short: "Grade answers to a quiz set",
	Long: `Grade answers to a quiz set. Answers are given in question order, one
argument per question. Without answers each question is asked on stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		only, _ := cmd.Flags().GetInt64Slice("questions")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(cmd, a)
		if err := a.RequireLLM(); err != nil {
			return err
		}

		set, err := a.Service.GetQuizSet(cmd.Context(), id)
		if err != nil {
			return err
		}
		items := selectItems(set.Items, only)
		answers, err := gatherAnswers(cmd, items, args[1:])
		if err != nil {
			return err
		}

		resp, err := a.Service.Grade(cmd.Context(), service.GradeRequest{
			QuizSetID:   set.ID,
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

// selectItems keeps the items named in ids, in the order given. Empty ids
// selects every item. Unknown ids are left for the service to reject.
func selectItems(items []quiz.Item, ids []int64) []quiz.Item {
	if len(ids) == 0 {
		return items
	}
	byID := make(map[int64]quiz.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	out := make([]quiz.Item, len(ids))
	for i, id := range ids {
		it, ok := byID[id]
		if !ok {
			it = quiz.Item{ID: id}
		}
		out[i] = it
	}
	return out
}

func itemIDs(items []quiz.Item) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// gatherAnswers returns args when given, otherwise asks each question on
// the command's input.
func gatherAnswers(cmd *cobra.Command, items []quiz.Item, args []string) ([]string, error) {
	if len(args) > 0 {
		if len(args) != len(items) {
			return nil, fmt.Errorf("got %d answers for %d questions: %w", len(args), len(items), service.ErrInvalidRequest)
		}
		return args, nil
	}
	return askAnswers(cmd.InOrStdin(), cmd.OutOrStdout(), items)
}

func askAnswers(in io.Reader, w io.Writer, items []quiz.Item) ([]string, error) {
	scanner := bufio.NewScanner(in)
	answers := make([]string, len(items))
	for i, it := range items {
		lipgloss.Fprintln(w, theme.Hint.Render(fmt.Sprintf("── Question %d/%d ──", i+1, len(items))))
		printItem(w, i+1, it)
		fmt.Fprint(w, "\nYour answer: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("read answer: %w", err)
			}
			return nil, fmt.Errorf("input closed after %d of %d answers", i, len(items))
		}
		answers[i] = optionAnswer(it, strings.TrimSpace(scanner.Text()))
		fmt.Fprintln(w)
	}
	return answers, nil
}

// optionAnswer maps a single option letter to the option text for
// multiple choice items, so "b" answers with the second option.
func optionAnswer(it quiz.Item, answer string) string {
	if it.Type != quiz.TypeMultipleChoice || len(answer) != 1 {
		return answer
	}
	i := int(strings.ToLower(answer)[0] - 'a')
	if i < 0 || i >= len(it.Options) {
		return answer
	}
	return it.Options[i]
}

func init() {
	quizGenerateCmd.Flags().StringArray("avoid", nil, "Question to avoid repeating (repeatable; default: the document's recent questions)")
	quizShowCmd.Flags().Bool("answers", false, "Include correct answers and explanations")
	quizGradeCmd.Flags().Int64Slice("questions", nil, "Grade only these question ids, in this order")

	quizCmd.AddCommand(quizGenerateCmd)
	quizCmd.AddCommand(quizShowCmd)
	quizCmd.AddCommand(quizGradeCmd)
}
