package model

// Stats is the aggregate view of a document at a point in time
type Stats struct {
	Sessions       int      `json:"sessions"`
	Commits        int      `json:"commits"`
	FilesModified  int      `json:"filesModified"`
	ActiveTime     string   `json:"activeTime"`
	ActiveMinutes  int      `json:"activeMinutes"`
	ElapsedTime    string   `json:"elapsedTime"`
	ElapsedMinutes int      `json:"elapsedMinutes"`
	Timeline       Timeline `json:"timeline"`
}
