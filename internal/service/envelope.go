package service

// Envelope is the uniform response shape of every operation, success and
// failure alike.
type Envelope struct {
	Status string   `json:"status"`
	Error  []string `json:"error"`
	Method string   `json:"method"`
	Result []any    `json:"result"`
}

// OK builds a success envelope for the named operation.
func OK(method string, results ...any) Envelope {
	if results == nil {
		results = []any{}
	}
	return Envelope{
		Status: "ok",
		Error:  []string{},
		Method: method,
		Result: results,
	}
}

// Fail builds a failure envelope for the named operation.
func Fail(method string, errs ...string) Envelope {
	if errs == nil {
		errs = []string{}
	}
	return Envelope{
		Status: "fail",
		Error:  errs,
		Method: method,
		Result: []any{},
	}
}
