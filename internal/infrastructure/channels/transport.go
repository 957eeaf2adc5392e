package channels

import (
	"io"
	"net/http"

	"github.com/enterprise/backend/internal/domain/channel"
)

// maxChannelResponseSize limits the response body size to prevent memory exhaustion
const maxChannelResponseSize = 10 * 1024 * 1024 // 10MB max response

// drainResponse reads the response body and maps error statuses to
// channel.ClientError so transmitters can record the code and body.
func drainResponse(resp *http.Response) (*channel.Response, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxChannelResponseSize))
	if err != nil {
		return nil, channel.NewClientError(resp.StatusCode, "failed to read response: "+err.Error())
	}
	if resp.StatusCode >= 400 {
		return nil, channel.NewClientError(resp.StatusCode, string(raw))
	}
	return &channel.Response{StatusCode: resp.StatusCode, Body: string(raw)}, nil
}
