package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/penwyp/go-worktime-tracker/internal/core/constants"
	"github.com/penwyp/go-worktime-tracker/internal/core/model"
	"github.com/penwyp/go-worktime-tracker/internal/util"
)

const (
	reportWidth   = 64
	timelineWidth = 50
	labelWidth    = 14
	dateLayout    = "02 Jan 2006, 15:04"
	clockLayout   = "15:04"
)

// ConsoleFormatter renders reports for a terminal
type ConsoleFormatter struct {
	out           io.Writer
	targetMinutes int
	times         *util.TimeProvider
}

// NewConsoleFormatter creates a formatter writing to out
func NewConsoleFormatter(out io.Writer) *ConsoleFormatter {
	return &ConsoleFormatter{
		out:           out,
		targetMinutes: constants.TargetMinutes,
		times:         util.GetTimeProvider(),
	}
}

func (f *ConsoleFormatter) printf(format string, args ...interface{}) {
	fmt.Fprintf(f.out, format, args...)
}

func (f *ConsoleFormatter) line(label, value string) {
	f.printf("   %s %s\n", util.PadString(label+":", labelWidth, true), value)
}

func (f *ConsoleFormatter) section(title string) {
	f.printf("%s\n%s\n", title, util.SectionSeparator(reportWidth))
}

// Format prints the full work report
func (f *ConsoleFormatter) Format(r *Report) {
	s := r.Summary

	f.printf("\n%s\n", util.HeavySeparator(reportWidth))
	f.printf("%s\n", util.CenterText("CASE STUDY WORK REPORT", reportWidth))
	f.printf("%s\n\n", util.HeavySeparator(reportWidth))

	f.section("📅 TIMELINE")
	f.line("Started", f.formatDate(r.Timeline.FirstActivity))
	f.line("Last Active", f.formatDate(r.Timeline.LastActivity))
	if r.Timeline.Submitted != nil {
		f.line("Submitted", f.formatDate(r.Timeline.Submitted))
	}
	f.printf("\n")

	f.section("⏱️  WORK TIME")
	f.line("Active Time", fmt.Sprintf("%s (%d minutes)", s.ActiveTime, s.ActiveMinutes))
	f.line("Elapsed Time", fmt.Sprintf("%s (wall clock)", s.ElapsedTime))
	f.line("Sessions", fmt.Sprintf("%d", s.Sessions))
	f.printf("\n")

	if len(r.Sessions) > 0 {
		f.section("📊 SESSION BREAKDOWN")
		for _, sess := range r.Sessions {
			end := "ongoing"
			status := " (active)"
			if sess.EndedAt != nil {
				end = f.times.Format(*sess.EndedAt, clockLayout)
				status = ""
			}
			f.printf("   Session %d: %s - %s (%d min)%s\n",
				sess.ID, f.times.Format(sess.StartedAt, clockLayout), end,
				sess.LiveMinutes(r.Generated), status)
		}
		f.printf("\n")

		f.formatTimeline(r.Sessions)
	}

	f.section("🔧 GIT ACTIVITY")
	commits := s.Git.TotalCommits
	if commits == 0 {
		commits = s.Commits
	}
	files := s.Git.FilesChanged
	if files == 0 {
		files = s.FilesModified
	}
	f.line("Commits", fmt.Sprintf("%d", commits))
	f.line("Files Changed", fmt.Sprintf("%d", files))
	if s.Git.EstimatedSessions > 0 {
		f.line("Estimated", fmt.Sprintf("%s over %d sessions (from commits)",
			util.FormatMinutes(s.Git.EstimatedWorkMinutes), s.Git.EstimatedSessions))
	}
	f.printf("\n")

	f.section(fmt.Sprintf("🎯 TARGET CHECK (%s)", util.FormatMinutes(f.targetMinutes)))
	f.line("Target", fmt.Sprintf("%s (%d minutes)", util.FormatMinutes(f.targetMinutes), f.targetMinutes))
	f.line("Actual", s.ActiveTime)
	f.line("Progress", fmt.Sprintf("%d%%", Progress(s.ActiveMinutes, f.targetMinutes)))
	f.line("Status", TargetStatus(s.ActiveMinutes, f.targetMinutes))
	f.printf("\n%s\n\n", util.HeavySeparator(reportWidth))
}

// formatTimeline draws one bar per session on a shared time axis
func (f *ConsoleFormatter) formatTimeline(sessions []*model.Session) {
	if len(sessions) == 0 {
		return
	}

	minTime := sessions[0].StartedAt
	maxTime := sessions[0].End()
	for _, s := range sessions {
		if s.StartedAt.Before(minTime) {
			minTime = s.StartedAt
		}
		if s.End().After(maxTime) {
			maxTime = s.End()
		}
	}
	totalRange := maxTime.Sub(minTime)
	if totalRange <= 0 {
		return
	}

	width := timelineWidth
	if avail := util.TerminalWidth() - 20; avail < width {
		width = avail
	}

	position := func(t time.Time) int {
		return int(math.Round(float64(t.Sub(minTime)) / float64(totalRange) * float64(width)))
	}

	f.section("📈 VISUAL TIMELINE")
	for _, s := range sessions {
		bar := util.TimelineBar(position(s.StartedAt), position(s.End()), width)
		f.printf("   %s [%s] %dm\n", util.PadString(fmt.Sprintf("S%d:", s.ID), 4, true), bar, s.DurationMinutes)
	}
	f.printf("\n")
}

// FormatQuickStats prints the short stats block
func (f *ConsoleFormatter) FormatQuickStats(stats model.Stats) {
	f.printf("\n📊 Quick Stats\n%s\n", util.SectionSeparator(14))
	f.printf("   Active Time: %s\n", stats.ActiveTime)
	f.printf("   Sessions:    %d\n", stats.Sessions)
	f.printf("   Commits:     %d\n", stats.Commits)
	f.printf("   Files:       %d\n\n", stats.FilesModified)
}

func (f *ConsoleFormatter) formatDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return f.times.Format(*t, dateLayout)
}

// Progress is actual as a rounded percentage of target
func Progress(actual, target int) int {
	if target <= 0 {
		return 0
	}
	return int(math.Round(float64(actual) / float64(target) * 100))
}

// TargetStatus classifies actual effort against the target
func TargetStatus(actual, target int) string {
	if target <= 0 {
		return "No target"
	}
	ratio := float64(actual) / float64(target)

	switch {
	case ratio < 0.5:
		return "⚠️  Under 50% - May need more time"
	case ratio < 0.8:
		return "📝 Good progress"
	case ratio <= 1.2:
		return "✅ On target"
	case ratio <= 1.5:
		return "📌 Slightly over target"
	default:
		return "⏰ Significantly over target"
	}
}
