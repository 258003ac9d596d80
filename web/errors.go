package web

import "fmt"

// APIError is returned by handlers for failures the client should see. It is
// rendered as the JSON object {"error": ..., "data": ..., "message": ...}.
type APIError struct {
	Err     string `json:"error"`
	Data    string `json:"data"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.Err
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Message)
}

// APIValueError reports an invalid input value; field names the form field.
func APIValueError(field, message string) *APIError {
	return &APIError{Err: "value:invalid", Data: field, Message: message}
}

// APIResourceNotFoundError reports a missing resource of the given kind.
func APIResourceNotFoundError(resource, message string) *APIError {
	return &APIError{Err: "value:notfound", Data: resource, Message: message}
}

// APIPermissionError reports a forbidden action.
func APIPermissionError(message string) *APIError {
	return &APIError{Err: "permission:forbidden", Data: "permission", Message: message}
}

// MissingArgumentError is returned by Request.Require and answered with 400.
type MissingArgumentError struct {
	Name string
}

func (e *MissingArgumentError) Error() string {
	return "Missing argument: " + e.Name
}
