package odata

// ResultKind tags the outcome of a performed request.
type ResultKind int

const (
	// ResultOK carries the decoded JSON body.
	ResultOK ResultKind = iota
	// ResultFormatError carries a body that is not JSON.
	ResultFormatError
	// ResultTransportFailure carries the reason the request did not succeed.
	ResultTransportFailure
)

func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultFormatError:
		return "format_error"
	case ResultTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// OData v4 annotations surfaced from collection responses.
const (
	AnnotationNextLink = "@odata.nextLink"
	AnnotationCount    = "@odata.count"
	AnnotationContext  = "@odata.context"
)

// Result is the outcome of one request. Exactly one of Value, RawBody or Err is meaningful,
// depending on Kind.
type Result struct {
	Kind       ResultKind
	URL        string
	StatusCode int
	Value      any
	RawBody    string
	Err        error
}

// OK reports whether the response was a JSON document.
func (r Result) OK() bool {
	return r.Kind == ResultOK
}

// Reason describes a non-OK result.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}

	return r.Err.Error()
}

// Annotation returns an @odata annotation from a JSON object body.
func (r Result) Annotation(name string) (any, bool) {
	obj, ok := r.Value.(map[string]any)
	if !ok {
		return nil, false
	}

	v, ok := obj[name]

	return v, ok
}

func okResult(url string, status int, value any) Result {
	return Result{Kind: ResultOK, URL: url, StatusCode: status, Value: value}
}

func formatErrorResult(url string, status int, raw string, err error) Result {
	return Result{
		Kind:       ResultFormatError,
		URL:        url,
		StatusCode: status,
		RawBody:    raw,
		Err:        &ResponseFormatError{RawBody: raw, Err: err},
	}
}

func transportFailureResult(url string, err *TransportError) Result {
	return Result{
		Kind:       ResultTransportFailure,
		URL:        url,
		StatusCode: err.StatusCode,
		Err:        err,
	}
}
