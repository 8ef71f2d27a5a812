package handler

const (
	errInternalServer = "Internal server error"
	errInvalidURL     = "Not a valid url"
	errTitleFetch     = "Could not read the page title"
)
