package model

// SourceRef points at the commit whose tree is built
type SourceRef struct {
	Owner     string
	Repo      string
	CommitSHA string
}

// SourceTree is an extracted source snapshot on local disk
type SourceTree struct {
	TempDir string   // Temporary directory owning the extraction; remove when done
	Root    string   // Project root inside TempDir
	Files   []string // List of extracted files
	Size    int64    // Total size in bytes
}
