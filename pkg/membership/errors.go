package membership

import "errors"

var (
	ErrRecordNotFound = errors.New("membership record not found")
	ErrMissingUserID  = errors.New("membership record user ID is required")

	ErrFailedToQueryRecords = errors.New("failed to query membership records")
	ErrFailedToSaveRecord   = errors.New("failed to save membership record")
)
