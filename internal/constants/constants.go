package constants

// Session
const (
	SessionCookieName = "project_session"
	ContextKeyUserID  = "user_id"
)

// Context keys populated by the authorization middleware
const (
	ContextKeyProject = "project"
	ContextKeyTask    = "task"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// DeletedCommentPlaceholder replaces the content of a soft-deleted comment.
// The row itself is never removed.
const DeletedCommentPlaceholder = "This comment was deleted."

// AttachmentURLPrefix is the public path prefix under which stored
// attachments are served.
const AttachmentURLPrefix = "/uploads/attachments/"
