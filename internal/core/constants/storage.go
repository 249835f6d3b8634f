package constants

const (
	// DocumentVersion is written to the _version field of the state file
	DocumentVersion = "1.0"

	// StateFileName lives at the tracked repository root
	StateFileName = ".tracker-session.json"

	// ReportFileName is regenerated on demand next to the state file
	ReportFileName = "tracker-report.json"

	// ChecksumSalt is mixed into the state file checksum
	ChecksumSalt = "ggf3-case-study-2024"

	// CommitHashLength and CommitMessageLimit bound stored commit records
	CommitHashLength   = 7
	CommitMessageLimit = 100

	// RecentCommitLimit is how many commits the git estimator reads
	RecentCommitLimit = 50

	// ReportCommitLimit is how many commits the report document keeps
	ReportCommitLimit = 20

	// ConfigFileName and EnvFileName are optional overrides in the base directory
	ConfigFileName = ".tracker.yaml"
	EnvFileName    = ".env"

	// TrackerDirName holds logs and lock files
	TrackerDirName = ".tracker"
)
