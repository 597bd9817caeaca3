package odata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	HeaderContentType = "Content-Type"

	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"
)

// ResolvePath returns the resource path addressed by desc, relative to its BaseURL.
func ResolvePath(desc RequestDescription) (string, error) {
	if err := desc.Validate(); err != nil {
		return "", err
	}

	switch desc.RequestType {
	case RequestTypeListEntitySet, RequestTypeCreateEntity, RequestTypeQuery:
		return desc.Path, nil
	case RequestTypeSingleEntity, RequestTypeDeleteEntity, RequestTypeUpdateEntity:
		return entityPath(desc), nil
	case RequestTypeSingleEntityPropertyValue:
		path := entityPath(desc)
		if desc.PropertyName != "" {
			path += "/" + desc.PropertyName
		}

		return path, nil
	case RequestTypeInvokeFunction:
		if desc.Method == MethodGet && desc.FunctionParams != "" {
			return desc.FunctionName + "(" + desc.FunctionParams + ")", nil
		}

		return desc.FunctionName, nil
	default:
		return "", &ValidationError{Field: "request_type", Reason: "is not supported: " + string(desc.RequestType)}
	}
}

// entityPath appends the quoted key literal; embedded quotes are passed through untouched.
func entityPath(desc RequestDescription) string {
	if desc.ObjectID == "" {
		return desc.Path
	}

	return desc.Path + "('" + desc.ObjectID + "')"
}

// ResolveURL joins BaseURL and the resolved path with a single "/" and appends QueryParams
// verbatim for read requests. BaseURL is not normalized, so a trailing slash yields "//".
func ResolveURL(desc RequestDescription) (string, error) {
	path, err := ResolvePath(desc)
	if err != nil {
		return "", err
	}

	url := desc.BaseURL + "/" + path

	if desc.acceptsQuery() && desc.QueryParams != "" {
		url += "?" + strings.TrimPrefix(desc.QueryParams, "?")
	}

	return url, nil
}

// NewHTTPRequest builds the outbound request for desc without credentials. Spaces in the
// query are sent as %20; only PATCH and POST carry a Content-Type header.
func NewHTTPRequest(ctx context.Context, desc RequestDescription) (*http.Request, error) {
	url, err := ResolveURL(desc)
	if err != nil {
		return nil, err
	}

	if base, query, ok := strings.Cut(url, "?"); ok {
		url = base + "?" + strings.ReplaceAll(query, " ", "%20")
	}

	var body io.Reader
	if desc.carriesBody() && desc.Body != "" {
		body = strings.NewReader(desc.Body)
	}

	req, err := http.NewRequestWithContext(ctx, string(desc.Method), url, body)
	if err != nil {
		return nil, &ValidationError{Field: "base_url", Reason: fmt.Sprintf("does not form a valid URL: %v", err)}
	}

	if desc.Method == MethodPatch || desc.Method == MethodPost {
		req.Header.Set(HeaderContentType, ContentTypeFormURLEncoded)
	}

	return req, nil
}
