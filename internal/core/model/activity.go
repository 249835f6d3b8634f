package model

import (
	"path/filepath"
	"strings"
)

// ActivityKind identifies which kind of activity was recorded
type ActivityKind int

const (
	KindFileChanged ActivityKind = iota
	KindCommitted
	KindManualNote
	KindCheckout
)

func (k ActivityKind) String() string {
	switch k {
	case KindFileChanged:
		return "file_changed"
	case KindCommitted:
		return "committed"
	case KindManualNote:
		return "manual_note"
	case KindCheckout:
		return "checkout"
	default:
		return "unknown"
	}
}

// Activity is one observed sign of work. The concrete types below are the only
// implementations.
type Activity interface {
	Kind() ActivityKind
	Label() string
	isActivity()
}

// FileChanged is a debounced edit to a tracked file, path relative to the watch root
type FileChanged struct {
	Path string
}

// Committed is a commit observed by the commit hook; Hash may be empty when the
// hook fires before the commit object exists
type Committed struct {
	Hash string
}

// ManualNote is an explicit "record" invocation
type ManualNote struct {
	Text string
}

// Checkout is a branch switch observed by the post-checkout hook
type Checkout struct{}

func (FileChanged) Kind() ActivityKind { return KindFileChanged }
func (Committed) Kind() ActivityKind   { return KindCommitted }
func (ManualNote) Kind() ActivityKind  { return KindManualNote }
func (Checkout) Kind() ActivityKind    { return KindCheckout }

func (a FileChanged) Label() string { return a.Path }
func (a Committed) Label() string {
	if a.Hash == "" {
		return "commit"
	}
	return "commit " + a.Hash
}
func (a ManualNote) Label() string { return a.Text }
func (Checkout) Label() string     { return "checkout" }

func (FileChanged) isActivity() {}
func (Committed) isActivity()   {}
func (ManualNote) isActivity()  {}
func (Checkout) isActivity()    {}

// ParseActivityLabel maps a free-form label from the command line to an activity.
// "checkout" and "commit" are the labels used by the git hooks; anything shaped
// like a file path becomes FileChanged; everything else is a manual note.
func ParseActivityLabel(label string) Activity {
	label = strings.TrimSpace(label)
	switch label {
	case "":
		return ManualNote{Text: "manual"}
	case "checkout":
		return Checkout{}
	case "commit":
		return Committed{}
	}

	if looksLikePath(label) {
		return FileChanged{Path: filepath.ToSlash(filepath.Clean(label))}
	}
	return ManualNote{Text: label}
}

func looksLikePath(label string) bool {
	if strings.ContainsAny(label, " \t") {
		return false
	}
	if strings.ContainsAny(label, `/\`) {
		return true
	}
	return len(filepath.Ext(label)) > 1
}
