package model

import "fmt"

// PackagedArtifact is a release archive produced for one leg
type PackagedArtifact struct {
	FileName string
	Path     string
	Size     int64
	Target   TargetSpec
}

// ArtifactBaseName is the archive name without extension
func ArtifactBaseName(crateName, versionTag, triple string) string {
	return fmt.Sprintf("%s-%s-%s", crateName, versionTag, triple)
}

// ArtifactFileName returns {crateName}-{versionTag}-{triple}.{ext}.
// It depends on its arguments only, so re-runs overwrite assets instead of duplicating them.
func ArtifactFileName(crateName, versionTag, triple, ext string) string {
	return ArtifactBaseName(crateName, versionTag, triple) + "." + ext
}
