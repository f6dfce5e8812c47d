package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"guidely-quiz-service/internal/app"
	"guidely-quiz-service/internal/catalog"
	"guidely-quiz-service/internal/domain"
	"guidely-quiz-service/internal/infra/memory"
	"guidely-quiz-service/internal/logging"
	"guidely-quiz-service/internal/scoring"
)

const barWidth = 20

// NewScoreCmd scores an answer set offline and prints the stream ranking.
func NewScoreCmd() *cobra.Command {
	var (
		pairs         []string
		answersFile   string
		questionsFile string
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an answer set and print the stream ranking",
		Example: `  guidely score --answer q1=2 --answer q5=-1
  guidely score --answers answers.yaml --questions bank.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			answers, err := collectAnswers(pairs, answersFile)
			if err != nil {
				return err
			}
			questions, err := loadBank(cmd.Context(), questionsFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			for id := range answers {
				if !bankHas(questions, id) {
					return fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, id)
				}
			}
			result := scoring.Default().Evaluate(questions, answers)
			printScoreReport(cmd.OutOrStdout(), result, len(answers), len(questions))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&pairs, "answer", nil, "answer as questionID=value, value in -2..2 (repeatable)")
	cmd.Flags().StringVar(&answersFile, "answers", "", "YAML file mapping question IDs to values")
	cmd.Flags().StringVar(&questionsFile, "questions", "", "YAML question bank (default: built-in bank)")
	return cmd
}

func collectAnswers(pairs []string, file string) (domain.AnswerSet, error) {
	answers := domain.AnswerSet{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read answers: %w", err)
		}
		if err := yaml.Unmarshal(data, &answers); err != nil {
			return nil, fmt.Errorf("parse answers: %w", err)
		}
	}
	for _, pair := range pairs {
		id, raw, ok := strings.Cut(pair, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("answer %q: want questionID=value", pair)
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("answer %q: %w", pair, err)
		}
		answers[strings.TrimSpace(id)] = v
	}
	for id, v := range answers {
		if !catalog.ValidOption(v) {
			return nil, fmt.Errorf("%w: %s=%d", domain.ErrInvalidOption, id, v)
		}
	}
	return answers, nil
}

func loadBank(ctx context.Context, file string, logOut io.Writer) ([]domain.Question, error) {
	if file == "" {
		return catalog.Questions(), nil
	}
	logger := logging.New(logOut, slog.LevelWarn, "")
	return memory.NewFileQuestionLoader(file, logger).LoadQuestions(ctx)
}

func bankHas(questions []domain.Question, id string) bool {
	for _, q := range questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

type scoreStyles struct {
	header   lipgloss.Style
	stream   lipgloss.Style
	positive lipgloss.Style
	negative lipgloss.Style
	dim      lipgloss.Style
}

func newScoreStyles() scoreStyles {
	return scoreStyles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		stream:   lipgloss.NewStyle().Width(12),
		positive: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		negative: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func printScoreReport(w io.Writer, result domain.Result, answered, total int) {
	styles := newScoreStyles()

	fmt.Fprintln(w, styles.header.Render("Stream ranking"))
	fmt.Fprintln(w, styles.dim.Render(fmt.Sprintf("%d of %d questions answered", answered, total)))
	fmt.Fprintln(w)
	for _, r := range result.Ranking {
		pct := result.Percentages[r.Category]
		barStyle := styles.positive
		if r.Score < 0 {
			barStyle = styles.negative
		}
		fmt.Fprintf(w, "%s %s %3d%%  %s\n",
			styles.stream.Render(r.Category.Label()),
			renderBar(pct, barStyle, styles.dim),
			pct,
			styles.dim.Render(fmt.Sprintf("score %+d", r.Score)))
	}

	fmt.Fprintln(w)
	for _, c := range app.Compare(result, 2) {
		fmt.Fprintln(w, styles.header.Render(c.Careers.Title))
		fmt.Fprintf(w, "  industries: %s\n", strings.Join(c.Careers.Industries, ", "))
		fmt.Fprintf(w, "  higher studies: %s\n", strings.Join(c.Careers.HigherStudies, ", "))
	}
}

func renderBar(percent int, fill, empty lipgloss.Style) string {
	filled := percent * barWidth / 100
	if percent > 0 && filled == 0 {
		filled = 1
	}
	return fill.Render(strings.Repeat("█", filled)) + empty.Render(strings.Repeat("░", barWidth-filled))
}
