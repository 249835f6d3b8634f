package model

import "sort"

// FileSet is the set of relative paths touched during the exercise. It is kept
// sorted so that the persisted form, and therefore the checksum, is deterministic.
type FileSet []string

// Add inserts a path, reporting whether it was new
func (f *FileSet) Add(path string) bool {
	if path == "" {
		return false
	}
	idx := sort.SearchStrings(*f, path)
	if idx < len(*f) && (*f)[idx] == path {
		return false
	}
	*f = append(*f, "")
	copy((*f)[idx+1:], (*f)[idx:])
	(*f)[idx] = path
	return true
}

// Contains reports whether the path is in the set
func (f FileSet) Contains(path string) bool {
	idx := sort.SearchStrings(f, path)
	return idx < len(f) && f[idx] == path
}

// Len returns the number of distinct paths
func (f FileSet) Len() int {
	return len(f)
}

// Normalize sorts and deduplicates a set decoded from disk
func (f *FileSet) Normalize() {
	if len(*f) == 0 {
		return
	}
	sort.Strings(*f)
	out := (*f)[:1]
	for _, p := range (*f)[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	*f = out
}
