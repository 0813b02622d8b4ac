package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 1 << 20

// StatusError is returned by ParseResponse for unsuccessful responses.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// errorBody covers both error shapes: the flat {code,message} envelope and
// the collection+json {collection:{error:{code,message}}} document served by
// older APIs.
type errorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Collection *struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"collection"`
}

// ParseResponse consumes resp and decodes a successful body into target.
//
// Only 200 and 204 succeed; 204 and a nil target succeed without decoding.
// Every other status, other 2xx codes included, produces a *StatusError.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
	default:
		return parseError(resp)
	}

	if resp.StatusCode == http.StatusNoContent || target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		if err == io.EOF {
			return fmt.Errorf("parse response: empty body")
		}
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func parseError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}

	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err != nil {
		return statusErr
	}

	switch {
	case body.Message != "":
		statusErr.Code, statusErr.Message = body.Code, body.Message
	case body.Collection != nil && body.Collection.Error.Message != "":
		statusErr.Code = body.Collection.Error.Code
		statusErr.Message = body.Collection.Error.Message
	}
	return statusErr
}
