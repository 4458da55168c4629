package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/linetrend/cmd/linetrend/commands"
	"github.com/Sumatoshi-tech/linetrend/internal/gittest"
	"github.com/Sumatoshi-tech/linetrend/pkg/config"
	"github.com/Sumatoshi-tech/linetrend/pkg/gitlib"
	"github.com/Sumatoshi-tech/linetrend/pkg/render"
)

type fixture struct {
	path   string
	first  gitlib.Hash
	second gitlib.Hash
}

// newFixture creates a two-commit repository: two lines, then three.
func newFixture(t *testing.T) fixture {
	t.Helper()

	repo := gittest.NewRepo(t)
	epoch := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	readme := repo.Blob("a\nb\n")
	first := repo.Commit(repo.Tree(gitlib.File("README", readme)), epoch)

	second := repo.Commit(repo.Tree(
		gitlib.File("README", readme),
		gitlib.File("notes.txt", repo.Blob("x\n")),
	), epoch.Add(time.Hour), first)

	return fixture{path: repo.Path, first: first, second: second}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd := commands.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.Execute()

	return out.String(), errOut.String(), err
}

func decode(t *testing.T, raw string) render.Document {
	t.Helper()

	var doc render.Document

	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	return doc
}

func TestNewRootCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := commands.NewRootCommand()

	for _, name := range []string{
		"config", "ordering", "first-parent", "limit", "workers", "format", "width", "height",
		"no-color", "object-cache-size", "rev", "log-level", "log-format", "otlp-endpoint",
		"metrics-file", "no-progress",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}

	sub, _, err := cmd.Find([]string{"version"})
	require.NoError(t, err)
	assert.Equal(t, "version", sub.Name())
}

func TestRootCommand_JSON(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	stdout, _, err := execute(t, fx.path, "--format", "json", "--no-progress")
	require.NoError(t, err)

	doc := decode(t, stdout)
	assert.Equal(t, 2, doc.Commits)
	assert.Equal(t, 1, doc.XMax)
	assert.Equal(t, 3, doc.YMax)

	require.Len(t, doc.Series, 2)
	assert.Equal(t, fx.first.String(), doc.Series[0].Commit)
	assert.Equal(t, 2, doc.Series[0].Lines)
	assert.Equal(t, fx.second.String(), doc.Series[1].Commit)
	assert.Equal(t, 3, doc.Series[1].Lines)

	assert.Equal(t, 2, doc.Cache.Objects)
	assert.Equal(t, int64(1), doc.Cache.Hits)
}

func TestRootCommand_TimeOrderingWithWorkers(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	stdout, _, err := execute(t, fx.path, "--format", "json", "--ordering", "time", "--workers", "4")
	require.NoError(t, err)

	doc := decode(t, stdout)
	require.Len(t, doc.Series, 2)
	assert.Equal(t, []int{2, 3}, []int{doc.Series[0].Lines, doc.Series[1].Lines})
}

func TestRootCommand_Limit(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	stdout, _, err := execute(t, fx.path, "--format", "json", "--limit", "1")
	require.NoError(t, err)

	doc := decode(t, stdout)
	require.Len(t, doc.Series, 1)
	assert.Equal(t, fx.second.String(), doc.Series[0].Commit)
	assert.Equal(t, 0, doc.XMax)
}

func TestRootCommand_Rev(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	stdout, _, err := execute(t, fx.path, "--format", "json", "--rev", "HEAD~1")
	require.NoError(t, err)

	doc := decode(t, stdout)
	require.Len(t, doc.Series, 1)
	assert.Equal(t, fx.first.String(), doc.Series[0].Commit)
	assert.Equal(t, 2, doc.YMax)
}

func TestRootCommand_UnknownRev(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	_, _, err := execute(t, fx.path, "--rev", "no-such-branch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-branch")
}

func TestRootCommand_TableWithSummary(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	stdout, stderr, err := execute(t, fx.path, "--format", "table", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, stdout, fx.second.Short())
	assert.Contains(t, stderr, "2 commits")
}

func TestRootCommand_Plot(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	stdout, _, err := execute(t, fx.path, "--width", "40", "--height", "10", "--no-color")
	require.NoError(t, err)

	assert.Len(t, bytes.Split(bytes.TrimRight([]byte(stdout), "\n"), []byte("\n")), 10)
}

func TestRootCommand_MetricsFile(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	metricsPath := filepath.Join(t.TempDir(), "linetrend.prom")

	_, _, err := execute(t, fx.path, "--format", "json", "--metrics-file", metricsPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "linetrend_commits")
	assert.Contains(t, string(raw), `status="ok"`)
}

func TestRootCommand_NotARepository(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, t.TempDir())
	require.ErrorIs(t, err, gitlib.ErrNotARepository)
}

func TestRootCommand_InvalidFlags(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	_, _, err := execute(t, fx.path, "--format", "svg")
	require.ErrorIs(t, err, config.ErrInvalidFormat)

	_, _, err = execute(t, fx.path, "--workers", "0")
	require.ErrorIs(t, err, config.ErrInvalidWorkers)

	_, _, err = execute(t, fx.path, "--ordering", "random")
	require.ErrorIs(t, err, config.ErrInvalidOrdering)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "linetrend ")
}
