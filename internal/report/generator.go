// Package report merges live session data with the commit-based estimate into
// tracker-report.json and a console summary.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-worktime-tracker/internal/core/constants"
	"github.com/penwyp/go-worktime-tracker/internal/core/model"
	"github.com/penwyp/go-worktime-tracker/internal/core/session"
	"github.com/penwyp/go-worktime-tracker/internal/data/store"
	"github.com/penwyp/go-worktime-tracker/internal/git"
	"github.com/penwyp/go-worktime-tracker/internal/util"
)

// SessionSource supplies a read-only copy of the state document
type SessionSource interface {
	Data() *model.Document
}

// GitSource supplies the retrospective commit view
type GitSource interface {
	RecentCommits(ctx context.Context, n int) []git.Commit
	SummaryOf(ctx context.Context, commits []git.Commit) git.Summary
}

// Summary is the live stats with the git summary nested under "git"
type Summary struct {
	model.Stats
	Git git.Summary `json:"git"`
}

// Report is the document written to tracker-report.json
type Report struct {
	Generated time.Time               `json:"generated"`
	Summary   Summary                 `json:"summary"`
	Sessions  []*model.Session        `json:"sessions"`
	Commits   []git.Commit            `json:"commits"`
	Timeline  model.Timeline          `json:"timeline"`
	Candidate model.CandidateIdentity `json:"candidate"`
}

// Option configures a Generator
type Option func(*Generator)

// WithClock overrides the time source used for the report snapshot
func WithClock(clock util.Clock) Option {
	return func(g *Generator) {
		g.clock = clock
	}
}

// WithOutput redirects console output
func WithOutput(w io.Writer) Option {
	return func(g *Generator) {
		g.console.out = w
	}
}

// WithTargetMinutes overrides the expected effort used by the target check
func WithTargetMinutes(minutes int) Option {
	return func(g *Generator) {
		if minutes > 0 {
			g.console.targetMinutes = minutes
		}
	}
}

// WithCommitLimit bounds how many commits the report keeps
func WithCommitLimit(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.commitLimit = n
		}
	}
}

// Generator builds, saves and prints reports
type Generator struct {
	sessions    SessionSource
	git         GitSource
	path        string
	clock       util.Clock
	commitLimit int
	console     *ConsoleFormatter
}

// NewGenerator creates a generator writing to reportPath
func NewGenerator(sessions SessionSource, gitSource GitSource, reportPath string, opts ...Option) *Generator {
	g := &Generator{
		sessions:    sessions,
		git:         gitSource,
		path:        reportPath,
		clock:       util.SystemClock{},
		commitLimit: constants.ReportCommitLimit,
		console:     NewConsoleFormatter(os.Stdout),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func logger() util.LoggerInterface {
	return util.Component("report")
}

// Path returns where the JSON report is written
func (g *Generator) Path() string {
	return g.path
}

// Build assembles a report. Every live figure is computed against a single
// snapshot of the clock.
func (g *Generator) Build(ctx context.Context) *Report {
	now := util.Stamp(g.clock.Now())
	doc := g.sessions.Data()

	var gitSummary git.Summary
	commits := []git.Commit{}
	if g.git != nil {
		if recent := g.git.RecentCommits(ctx, 0); recent != nil {
			commits = recent
		}
		gitSummary = g.git.SummaryOf(ctx, commits)
	}
	if len(commits) > g.commitLimit {
		commits = commits[:g.commitLimit]
	}

	return &Report{
		Generated: now,
		Summary: Summary{
			Stats: session.ComputeStats(doc, now),
			Git:   gitSummary,
		},
		Sessions:  doc.Sessions,
		Commits:   commits,
		Timeline:  doc.Timeline,
		Candidate: doc.Candidate,
	}
}

// Save writes the report as indented JSON
func (g *Generator) Save(r *Report) error {
	data, err := sonic.ConfigStd.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := store.WriteFileAtomic(g.path, data); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	logger().Info("Report saved", util.F("path", g.path))
	return nil
}

// Generate builds the report, saves it and prints it. The console report is
// printed even when saving fails.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	r := g.Build(ctx)
	saveErr := g.Save(r)
	if saveErr == nil {
		fmt.Fprintf(g.console.out, "JSON report saved: %s\n", g.path)
	}
	g.console.Format(r)
	return r, saveErr
}

// PrintQuickStats prints the short summary used by the stats command
func (g *Generator) PrintQuickStats() model.Stats {
	stats := session.ComputeStats(g.sessions.Data(), g.clock.Now())
	g.console.FormatQuickStats(stats)
	return stats
}
