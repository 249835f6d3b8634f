package constants

// DefaultExtensions are the file types whose edits count as activity
var DefaultExtensions = []string{".ts", ".js", ".tsx", ".jsx", ".json", ".css", ".html"}

// DefaultIgnorePatterns are matched against every path segment below the watch root
var DefaultIgnorePatterns = []string{"node_modules", ".git", "dist", "build", "coverage", StateFileName}

const (
	// LockFileName serialises state file updates across processes
	LockFileName = "session.lock"

	// LogFileName is written below TrackerDirName
	LogFileName = "tracker.log"

	// DefaultWatchDirName is watched below the base directory unless overridden
	DefaultWatchDirName = "solution"
)
