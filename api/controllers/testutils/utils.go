package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/zefiro/zefiro-job/api"
	"github.com/zefiro/zefiro-job/router"
)

type ControllerTestUtils struct {
	controllers []api.Controller
}

func New(controllers ...api.Controller) ControllerTestUtils {
	return ControllerTestUtils{
		controllers: controllers,
	}
}

// ExecuteRequest Helper method to issue a http request
func (ctrl *ControllerTestUtils) ExecuteRequest(ctx context.Context, method, path string) <-chan *http.Response {
	return ctrl.ExecuteRequestWithBody(ctx, method, path, nil)
}

// ExecuteRequestWithBody Helper method to issue a http request with a JSON payload
func (ctrl *ControllerTestUtils) ExecuteRequestWithBody(ctx context.Context, method, path string, body interface{}) <-chan *http.Response {
	responseChan := make(chan *http.Response)

	go func() {
		defer close(responseChan)
		var reader io.Reader

		if body != nil {
			payload, _ := json.Marshal(body)
			reader = bytes.NewReader(payload)
		}

		server := httptest.NewServer(router.NewServer(ctrl.controllers...))
		defer server.Close()
		request, err := http.NewRequestWithContext(ctx, method, buildURLFromServer(server, path), reader)
		if err != nil {
			return
		}
		response, err := http.DefaultClient.Do(request)
		if err != nil {
			return
		}
		responseChan <- response
	}()

	return responseChan
}

// GetResponseBody Gets response payload as type
func GetResponseBody(response *http.Response, target interface{}) error {
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}

// RequestContextMatcher Matches any context.Context passed to a mocked handler
type RequestContextMatcher struct{}

func (RequestContextMatcher) Matches(x interface{}) bool {
	_, ok := x.(context.Context)
	return ok
}

func (RequestContextMatcher) String() string {
	return "is a request context"
}

func buildURLFromServer(server *httptest.Server, path string) string {
	url, _ := url.Parse(server.URL)
	url.Path = path
	return url.String()
}
