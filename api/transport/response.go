package transport

import "encoding/json"

// ErrorBody is the JSON body of every failed response.
type ErrorBody struct {
	Error string `json:"error"`
}

// NewError returns an error body carrying msg.
func NewError(msg string) ErrorBody {
	return ErrorBody{Error: msg}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e ErrorBody) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
