package model

// PublishStatus is the outcome of the Release Publisher for one leg
type PublishStatus string

const (
	PublishNotAttempted   PublishStatus = "not-attempted"
	PublishPublished      PublishStatus = "published"
	PublishAlreadyPresent PublishStatus = "already-present"
	PublishFailure        PublishStatus = "failure"
)

// PublishResult is the per-leg publish record
type PublishResult struct {
	Status PublishStatus `json:"status" yaml:"status"`
	Tag    string        `json:"tag,omitempty" yaml:"tag,omitempty"`
	Error  string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded reports whether the asset is attached to the release after the call
func (r PublishResult) Succeeded() bool {
	return r.Status == PublishPublished || r.Status == PublishAlreadyPresent
}
