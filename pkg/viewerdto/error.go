package viewerdto

type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "viewer service error"
}

const (
	CodeSessionNotFound = "session_not_found"
	CodeSetupMove       = "setup_move_failed"
	CodeReplay          = "replay_failed"
	CodeInternal        = "internal"
)
