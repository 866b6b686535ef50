package model

// NoticeLevel is the category of a user-facing notice
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message for whoever presents results to the user.
// Presentation is left to the caller.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
