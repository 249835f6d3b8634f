// Package git reads commit history with the git command line tool and derives
// an approximate work timeline from commit timestamps alone. It never returns
// errors: a missing repository, an empty history or a missing git binary all
// produce empty results.
package git

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-worktime-tracker/internal/core/constants"
	"github.com/penwyp/go-worktime-tracker/internal/util"
)

// Commit is one entry of git log
type Commit struct {
	Hash      string    `json:"hash"`
	FullHash  string    `json:"fullHash"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// CommitStat is a commit with its change size
type CommitStat struct {
	Commit
	FilesChanged int `json:"filesChanged"`
	Insertions   int `json:"insertions"`
	Deletions    int `json:"deletions"`
}

// Summary is the git section of the report
type Summary struct {
	IsGitRepo            bool    `json:"isGitRepo"`
	TotalCommits         int     `json:"totalCommits"`
	FirstCommit          *Commit `json:"firstCommit"`
	LastCommit           *Commit `json:"lastCommit"`
	FilesChanged         int     `json:"filesChanged"`
	EstimatedWorkMinutes int     `json:"estimatedWorkMinutes"`
	EstimatedSessions    int     `json:"estimatedSessions"`
}

// Option configures an Integration
type Option func(*Integration)

// WithExecutor injects the command executor, mainly for tests
func WithExecutor(executor CommandExecutor) Option {
	return func(g *Integration) {
		g.executor = executor
	}
}

// WithTimeout bounds every git subprocess
func WithTimeout(d time.Duration) Option {
	return func(g *Integration) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithCommitLimit sets how many recent commits are read
func WithCommitLimit(n int) Option {
	return func(g *Integration) {
		if n > 0 {
			g.limit = n
		}
	}
}

// WithEstimator overrides the session split gap and the per-commit floor
func WithEstimator(gap, perCommit time.Duration) Option {
	return func(g *Integration) {
		if gap > 0 {
			g.sessionGap = gap
		}
		if perCommit > 0 {
			g.perCommit = perCommit
		}
	}
}

// Integration runs read-only git queries against one repository
type Integration struct {
	repoPath   string
	executor   CommandExecutor
	timeout    time.Duration
	limit      int
	sessionGap time.Duration
	perCommit  time.Duration
}

// New creates an Integration for the repository at repoPath
func New(repoPath string, opts ...Option) *Integration {
	g := &Integration{
		repoPath:   repoPath,
		executor:   NewRealExecutor(),
		timeout:    constants.GitCommandTimeout,
		limit:      constants.RecentCommitLimit,
		sessionGap: constants.EstimatorSessionGap,
		perCommit:  constants.MinutesPerCommit * time.Minute,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func logger() util.LoggerInterface {
	return util.Component("git")
}

// run executes git and returns stdout; failures are logged and reported as ok=false
func (g *Integration) run(ctx context.Context, args ...string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	stdout, stderr, err := g.executor.Run(ctx, g.repoPath, "git", args...)
	if err != nil {
		logger().Debug("git command failed",
			util.F("args", strings.Join(args, " ")),
			util.F("stderr", strings.TrimSpace(string(stderr))),
			util.F("error", err))
		return "", false
	}
	return string(stdout), true
}

func nonEmptyLines(output string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// IsRepo reports whether repoPath is inside a git work tree
func (g *Integration) IsRepo(ctx context.Context) bool {
	_, ok := g.run(ctx, "rev-parse", "--git-dir")
	return ok
}

// RecentCommits returns up to n non-merge commits, newest first. n <= 0 uses
// the configured limit.
func (g *Integration) RecentCommits(ctx context.Context, n int) []Commit {
	if n <= 0 {
		n = g.limit
	}

	out, ok := g.run(ctx, "log", fmt.Sprintf("-%d", n), "--format=%H|%aI|%s", "--no-merges")
	if !ok {
		return []Commit{}
	}

	commits := make([]Commit, 0, n)
	for _, line := range nonEmptyLines(out) {
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 2 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			logger().Debug("Skipping commit with unparsable date", util.F("line", line))
			continue
		}
		c := Commit{
			Hash:      util.ShortHash(parts[0]),
			FullHash:  parts[0],
			Timestamp: ts.UTC(),
		}
		if len(parts) == 3 {
			c.Message = parts[2]
		}
		commits = append(commits, c)
	}
	return commits
}

// FirstCommitTime returns the author time of the oldest commit
func (g *Integration) FirstCommitTime(ctx context.Context) *time.Time {
	out, ok := g.run(ctx, "log", "--reverse", "--format=%aI")
	if !ok {
		return nil
	}
	return parseFirstTime(out)
}

// LastCommitTime returns the author time of HEAD
func (g *Integration) LastCommitTime(ctx context.Context) *time.Time {
	out, ok := g.run(ctx, "log", "-1", "--format=%aI")
	if !ok {
		return nil
	}
	return parseFirstTime(out)
}

func parseFirstTime(out string) *time.Time {
	lines := nonEmptyLines(out)
	if len(lines) == 0 {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, lines[0])
	if err != nil {
		return nil
	}
	ts = ts.UTC()
	return &ts
}

// LastCommitHash returns the short hash of HEAD, or "" without commits
func (g *Integration) LastCommitHash(ctx context.Context) string {
	out, ok := g.run(ctx, "rev-parse", "HEAD")
	if !ok {
		return ""
	}
	return util.ShortHash(strings.TrimSpace(out))
}

// ChangedFiles lists every path touched by a non-merge commit, deduplicated
func (g *Integration) ChangedFiles(ctx context.Context) []string {
	out, ok := g.run(ctx, "log", "--name-only", "--format=", "--no-merges")
	if !ok {
		return []string{}
	}

	seen := make(map[string]struct{})
	files := []string{}
	for _, line := range nonEmptyLines(out) {
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		files = append(files, line)
	}
	return files
}

var (
	filesChangedPattern = regexp.MustCompile(`(\d+) files? changed`)
	insertionsPattern   = regexp.MustCompile(`(\d+) insertions?\(\+\)`)
	deletionsPattern    = regexp.MustCompile(`(\d+) deletions?\(-\)`)
)

// CommitStats returns change sizes for the recent commits. A commit whose
// stat cannot be read is reported with zero counts.
func (g *Integration) CommitStats(ctx context.Context) []CommitStat {
	commits := g.RecentCommits(ctx, 0)
	stats := make([]CommitStat, 0, len(commits))

	for _, c := range commits {
		stat := CommitStat{Commit: c}
		if out, ok := g.run(ctx, "show", "--stat", "--format=", c.FullHash); ok {
			if lines := nonEmptyLines(out); len(lines) > 0 {
				summary := lines[len(lines)-1]
				stat.FilesChanged = firstInt(filesChangedPattern, summary)
				stat.Insertions = firstInt(insertionsPattern, summary)
				stat.Deletions = firstInt(deletionsPattern, summary)
			}
		}
		stats = append(stats, stat)
	}
	return stats
}

func firstInt(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// AnalyzeCommitGaps measures the gaps between recent commits, newest first
func (g *Integration) AnalyzeCommitGaps(ctx context.Context) GapAnalysis {
	return AnalyzeGaps(g.RecentCommits(ctx, 0))
}

// EstimateWorkTime segments recent commits into estimated sessions
func (g *Integration) EstimateWorkTime(ctx context.Context) WorkEstimate {
	return EstimateSessions(g.RecentCommits(ctx, 0), g.sessionGap, g.perCommit)
}

// Summary collects the figures the report needs
func (g *Integration) Summary(ctx context.Context) Summary {
	return g.SummaryOf(ctx, g.RecentCommits(ctx, 0))
}

// SummaryOf summarises commits already read with RecentCommits, newest first
func (g *Integration) SummaryOf(ctx context.Context, commits []Commit) Summary {
	estimate := EstimateSessions(commits, g.sessionGap, g.perCommit)

	summary := Summary{
		IsGitRepo:            g.IsRepo(ctx),
		TotalCommits:         len(commits),
		FilesChanged:         len(g.ChangedFiles(ctx)),
		EstimatedWorkMinutes: estimate.TotalMinutes,
		EstimatedSessions:    len(estimate.Sessions),
	}
	if len(commits) > 0 {
		first := commits[len(commits)-1]
		last := commits[0]
		summary.FirstCommit = &first
		summary.LastCommit = &last
	}
	return summary
}
