package response

// ErrBody is the uniform error payload. Clients only ever see a
// human-readable message, never internals.
type ErrBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error builds the error payload, falling back to the default message for
// the code when no custom one is given.
func Error(code int, customMsg string) ErrBody {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return ErrBody{Code: code, Message: msg}
}
