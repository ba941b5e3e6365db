package comm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const (
	ContentType = "application/json"

	// errorMessageMaxLength is the maximum length of the response body we
	// include into the generated error message
	errorMessageMaxLength = 80
)

// HTTPSender posts the wire envelopes to http(s) endpoints. Zero Timeout
// uses the process wide setting.
type HTTPSender struct {
	Client  *http.Client
	Timeout time.Duration
}

func (s *HTTPSender) client() *http.Client {
	if s.Client == nil {
		return http.DefaultClient
	}
	return s.Client
}

func (s *HTTPSender) Deliver(ctx context.Context, endpoint string, w *Wire) (err error) {
	defer err2.Handle(&err, "http deliver %s", endpoint)

	msg := try.To1(json.Marshal(w))
	timeout := s.Timeout
	if timeout == 0 {
		timeout = utils.Settings.Timeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request := try.To1(http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(msg)))
	request.Close = true // deferred response.Body.Close isn't always enough
	request.Header.Set("Content-Type", ContentType)

	response := try.To1(s.client().Do(request))
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil {
			glog.Warningln("body.Close: ", closeErr)
		}
	}()

	data := try.To1(io.ReadAll(response.Body))
	try.To(checkHTTPStatus(response, data))
	return nil
}

// checkHTTPStatus checks the status code and gets the server message
func checkHTTPStatus(response *http.Response, data []byte) error {
	if response.StatusCode/100 == 2 {
		return nil
	}
	glog.Warning("http code:", response.Status)
	contentType := response.Header.Get("Content-type")
	// from our server: text/plain; charset=utf-8
	if strings.HasPrefix(contentType, "text/plain") {
		return fmt.Errorf("%s: %s",
			response.Status, data[0:min(errorMessageMaxLength, len(data))])
	}
	return fmt.Errorf("%v", response.Status)
}
