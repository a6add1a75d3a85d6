package definition

import "fmt"

// MalformedDocumentError reports a raw policy document that lacks the
// structure required for normalization. It is never retried; callers decide
// whether to skip the document or abort.
type MalformedDocumentError struct {
	Service string
	File    string
	Reason  string
	Err     error
}

func (e *MalformedDocumentError) Error() string {
	where := e.File
	if e.Service != "" {
		where = e.Service + "/" + e.File
	}
	if where == "" || where == e.Service+"/" {
		where = "<inline>"
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed policy document %s: %s: %v", where, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed policy document %s: %s", where, e.Reason)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }
