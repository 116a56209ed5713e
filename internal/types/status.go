package types

// Status is the lifecycle status of a row in the database
// Soft-deleted rows are kept with StatusDeleted and excluded from queries
type Status string

const (
	StatusPublished Status = "published"
	StatusDeleted   Status = "deleted"
)
