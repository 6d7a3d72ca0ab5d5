package usecase

import "github.com/m-mizutani/convoy/pkg/domain/model"

// MayPublish decides whether a run is authorized to upload release assets.
// Only tag pushes built with the stable toolchain publish; nightly output is never
// shipped as a release and branch pushes never upload.
func MayPublish(rc model.RunContext) bool {
	return rc.EventKind == model.EventPushTag &&
		rc.Channel == model.ChannelStable &&
		rc.VersionTag != ""
}
