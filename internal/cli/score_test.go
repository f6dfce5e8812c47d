package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"guidely-quiz-service/internal/domain"
)

func runScore(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"score"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommandPrintsRanking(t *testing.T) {
	out, err := runScore(t, "--answer", "q1=2", "--answer", "q5=2")
	require.NoError(t, err)

	assert.Contains(t, out, "Stream ranking")
	assert.Contains(t, out, "2 of 12 questions answered")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "score +8")

	science := strings.Index(out, "Science ")
	vocational := strings.Index(out, "Vocational ")
	require.NotEqual(t, -1, science)
	require.NotEqual(t, -1, vocational)
	assert.Less(t, science, vocational, "science leads the ranking")
}

func TestScoreCommandRejectsBadAnswers(t *testing.T) {
	_, err := runScore(t, "--answer", "q1=3")
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	_, err = runScore(t, "--answer", "nope=1")
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	_, err = runScore(t, "--answer", "q1")
	assert.Error(t, err)
}

func TestScoreCommandReadsFiles(t *testing.T) {
	dir := t.TempDir()
	bank := filepath.Join(dir, "bank.yaml")
	require.NoError(t, os.WriteFile(bank, []byte(`questions:
  - id: a
    text: I like markets.
    weights: {commerce: 2}
  - id: b
    text: I like poems.
    weights: {arts: 1}
`), 0o644))
	answers := filepath.Join(dir, "answers.yaml")
	require.NoError(t, os.WriteFile(answers, []byte("a: 2\nb: -2\n"), 0o644))

	out, err := runScore(t, "--answers", answers, "--questions", bank)
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 2 questions answered")
	assert.Contains(t, out, "score +4")
	assert.Contains(t, out, "score -2")
}

func TestCollectAnswersFlagsOverrideFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(file, []byte("q1: 1\nq2: 0\n"), 0o644))

	answers, err := collectAnswers([]string{"q1=-2"}, file)
	require.NoError(t, err)
	assert.Equal(t, domain.AnswerSet{"q1": -2, "q2": 0}, answers)
}

func TestRenderBarWidth(t *testing.T) {
	plain := lipgloss.NewStyle()
	for _, pct := range []int{0, 1, 50, 100} {
		bar := renderBar(pct, plain, plain)
		assert.Equal(t, barWidth, utf8.RuneCountInString(bar), "percent %d", pct)
	}
	assert.Equal(t, strings.Repeat("█", 10)+strings.Repeat("░", 10), renderBar(50, plain, plain))
	assert.True(t, strings.HasPrefix(renderBar(1, plain, plain), "█"))
}
