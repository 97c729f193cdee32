package nutrition

import "errors"

// Outcomes reported by the pipeline. An unavailable analysis is not among
// them: it takes the fallback path and the upload still succeeds.
var (
	ErrOwnerNotFound      = errors.New("owner not found")
	ErrImageNotFound      = errors.New("image not found")
	ErrStorageFailure     = errors.New("storage failure")
	ErrPersistenceFailure = errors.New("persistence failure")
)
