package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
	"time"
)

// HTTPErr is an error that knows which HTTP status it should be reported as
type HTTPErr struct {
	Status  int
	Message string
}

func (err HTTPErr) Error() string {
	return fmt.Sprintf("%d: %s", err.Status, err.Message)
}

// Error describes a failure talking to an upstream service
type Error struct {
	LogMsg     string
	SimpleMsg  string
	Response   string
	URL        string
	HTTPStatus int
	cause      error
}

func (err *Error) Error() string {
	if err.LogMsg != "" && err.LogMsg != err.SimpleMsg {
		return err.SimpleMsg + ": " + err.LogMsg
	}
	return err.SimpleMsg
}

// Unwrap returns the underlying error, if any
func (err *Error) Unwrap() error {
	return err.cause
}

// Log writes the error out, prefixed, and returns it
func (err *Error) Log(ctx LogContext, prefix string) error {
	l := contextLogger(ctx)
	l.Error().
		Str("url", err.URL).
		Int("status", err.HTTPStatus).
		Str("response", err.Response).
		Str("detail", err.LogMsg).
		Msg(prefix + err.SimpleMsg)
	return err
}

// HTTPError logs the message and writes it to the response with the given status
func HTTPError(request *http.Request, writer http.ResponseWriter, ctx LogContext, message string, status int) {
	LogAudit(ctx, LogAuditInput{Actor: AppName, Action: request.Method + " response", Actee: request.URL.String(),
		Message: message, Severity: WARNING})
	http.Error(writer, message, status)
}

var (
	httpClient     *http.Client
	httpClientOnce sync.Once
)

// HTTPClient returns the shared client used for upstream requests
func HTTPClient() *http.Client {
	httpClientOnce.Do(func() {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	})
	return httpClient
}

// ReqByObjJSON sends input marshalled as JSON and decodes a JSON reply into
// output. authKey, when non-empty, is sent as the Authorization header.
func ReqByObjJSON(method, url, authKey string, input interface{}, output interface{}) (*http.Response, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequest(method, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	if authKey != "" {
		request.Header.Set("Authorization", authKey)
	}

	response, err := HTTPClient().Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	responseBody, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return response, err
	}
	if response.StatusCode >= 400 {
		return response, &Error{
			SimpleMsg:  fmt.Sprintf("%s %s failed: %s", method, url, response.Status),
			Response:   string(responseBody),
			URL:        url,
			HTTPStatus: response.StatusCode,
		}
	}
	if output != nil {
		if err = json.Unmarshal(responseBody, output); err != nil {
			return response, &Error{
				SimpleMsg:  "Unexpected response from " + url,
				LogMsg:     err.Error(),
				Response:   string(responseBody),
				URL:        url,
				HTTPStatus: response.StatusCode,
				cause:      err,
			}
		}
	}
	return response, nil
}
