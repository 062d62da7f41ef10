package client

// Navigator is the host's view router.
type Navigator interface {
	OnLoginView() bool
	ToLogin()
	// ShowBlockingNotice displays msg and returns once the user dismissed it.
	ShowBlockingNotice(msg string)
}

// Notifier surfaces failed calls to the user.
type Notifier interface {
	Notify(err *APIError)
}

// ActivityEvent is a user interaction that keeps the session alive.
type ActivityEvent string

const (
	ActivityClick    ActivityEvent = "click"
	ActivityKeypress ActivityEvent = "keypress"
	ActivityScroll   ActivityEvent = "scroll"
	ActivityTouch    ActivityEvent = "touch"
)

// SessionExpiredNotice is shown when the sweep ends an idle session.
const SessionExpiredNotice = "Сессия истекла. Пожалуйста, войдите снова."
