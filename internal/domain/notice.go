package domain

// NoticeKind classifies a user-facing notification
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
	NoticeError   NoticeKind = "error"
)

// Notice is a queued, non-blocking message shown on the next page render.
// AutoHideMs of zero means the notice stays until dismissed.
type Notice struct {
	Kind       NoticeKind `json:"kind"`
	Message    string     `json:"message"`
	AutoHideMs int        `json:"autohide_ms,omitempty"`
	Tag        string     `json:"tag,omitempty"`
}
