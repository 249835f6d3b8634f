package git

import (
	"sort"
	"time"

	"github.com/penwyp/go-worktime-tracker/internal/util"
)

// EstimatedSession is a run of commits with no gap above the split threshold
type EstimatedSession struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Commits int       `json:"commits"`
	// DurationMinutes is the wall-clock span between the first and last commit
	DurationMinutes int `json:"durationMinutes"`
	// CreditedMinutes is DurationMinutes raised to the per-commit floor
	CreditedMinutes int `json:"creditedMinutes"`
}

// WorkEstimate is the commit-only approximation of time worked
type WorkEstimate struct {
	TotalMinutes int                `json:"totalMinutes"`
	Sessions     []EstimatedSession `json:"sessions"`
}

// EstimateSessions segments commits into sessions. Walking oldest to newest, a
// gap strictly longer than gap starts a new session. Each session is credited
// with at least perCommit for every commit it contains.
func EstimateSessions(commits []Commit, gap time.Duration, perCommit time.Duration) WorkEstimate {
	if len(commits) == 0 {
		return WorkEstimate{Sessions: []EstimatedSession{}}
	}

	ordered := make([]Commit, len(commits))
	copy(ordered, commits)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	floor := int(perCommit / time.Minute)
	finish := func(s EstimatedSession) EstimatedSession {
		s.DurationMinutes = util.RoundMinutes(s.End.Sub(s.Start))
		s.CreditedMinutes = max(s.DurationMinutes, s.Commits*floor)
		return s
	}

	var sessions []EstimatedSession
	current := EstimatedSession{Start: ordered[0].Timestamp, End: ordered[0].Timestamp, Commits: 1}
	for i := 1; i < len(ordered); i++ {
		ts := ordered[i].Timestamp
		if ts.Sub(ordered[i-1].Timestamp) > gap {
			sessions = append(sessions, finish(current))
			current = EstimatedSession{Start: ts, End: ts, Commits: 1}
			continue
		}
		current.End = ts
		current.Commits++
	}
	sessions = append(sessions, finish(current))

	total := 0
	for _, s := range sessions {
		total += s.CreditedMinutes
	}
	return WorkEstimate{TotalMinutes: total, Sessions: sessions}
}

// CommitGap is the time between two consecutive commits
type CommitGap struct {
	From       string `json:"from"`
	To         string `json:"to"`
	GapMinutes int    `json:"gapMinutes"`
}

// GapAnalysis lists gaps newest to oldest with their rounded mean
type GapAnalysis struct {
	Gaps          []CommitGap `json:"gaps"`
	AvgGapMinutes int         `json:"avgGapMinutes"`
}

// AnalyzeGaps computes gaps over commits ordered newest first, as git log returns them
func AnalyzeGaps(commits []Commit) GapAnalysis {
	if len(commits) < 2 {
		return GapAnalysis{Gaps: []CommitGap{}}
	}

	gaps := make([]CommitGap, 0, len(commits)-1)
	sum := 0
	for i := 0; i < len(commits)-1; i++ {
		minutes := util.RoundMinutes(commits[i].Timestamp.Sub(commits[i+1].Timestamp))
		gaps = append(gaps, CommitGap{
			From:       commits[i+1].Hash,
			To:         commits[i].Hash,
			GapMinutes: minutes,
		})
		sum += minutes
	}

	return GapAnalysis{
		Gaps:          gaps,
		AvgGapMinutes: util.RoundMinutes(time.Duration(sum) * time.Minute / time.Duration(len(gaps))),
	}
}
