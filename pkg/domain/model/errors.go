package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrTagPackaging marks a build that claimed success but produced no usable artifact
	ErrTagPackaging = goerr.NewTag("packaging_error")

	// ErrTagAssetExists marks a release upload rejected because the asset is already attached
	ErrTagAssetExists = goerr.NewTag("asset_exists")

	// ErrTagInvalidInput marks malformed trigger or configuration values
	ErrTagInvalidInput = goerr.NewTag("invalid_input")
)
