package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kava-labs/bundle-gateway/service/bundlemdw"
)

// BundleServiceClient provides a client
// for making requests and decoding responses
// to the bundle gateway API
type BundleServiceClient struct {
	*http.Client
	config            BundleServiceClientConfig
	DebugLogResponses bool
}

// BundleServiceClientConfig wraps values used to
// create a new BundleServiceClient
type BundleServiceClientConfig struct {
	BundleServiceHostname string
	BundleRoutePath       string
	DebugLogResponses     bool
}

// BundleResponse is a decoded bundle envelope
type BundleResponse struct {
	Bundle  string                 `json:"bundle"`
	Results []bundlemdw.ItemResult `json:"results"`
	Time    int64                  `json:"time"`
}

// NewBundleServiceClient creates a new BundleServiceClient
// using the provided config, returning the client and error (if any)
func NewBundleServiceClient(config BundleServiceClientConfig) (*BundleServiceClient, error) {
	if config.BundleRoutePath == "" {
		config.BundleRoutePath = "/bundle"
	}

	httpClient := &http.Client{}
	return &BundleServiceClient{
		Client:            httpClient,
		DebugLogResponses: config.DebugLogResponses,
		config:            config,
	}, nil
}

// PostBundle posts payload, a list of item urls or item objects,
// to the gateway and decodes the bundle envelope it answers with
func (c *BundleServiceClient) PostBundle(ctx context.Context, payload []any) (BundleResponse, error) {
	var response BundleResponse
	url := c.config.BundleServiceHostname + c.config.BundleRoutePath

	request, err := CreateRequest(ctx, http.MethodPost, url, payload)

	if err != nil {
		return response, err
	}

	request.Header.Set("Content-Type", "application/json")

	err = Call(*c, request, &response)

	return response, err
}

// GetDatabaseStatus calls `DatabaseStatusPath` to
// get the number of stored bundle request metrics
func (c *BundleServiceClient) GetDatabaseStatus(ctx context.Context) (DatabaseStatusResponse, error) {
	var response DatabaseStatusResponse
	url := c.config.BundleServiceHostname + DatabaseStatusPath

	request, err := CreateRequest(ctx, http.MethodGet, url, nil)

	if err != nil {
		return response, err
	}

	err = Call(*c, request, &response)

	return response, err
}

// GetUpstreamStats calls `UpstreamStatsPath` to get the
// item outcome counters of the backend host
func (c *BundleServiceClient) GetUpstreamStats(ctx context.Context, host string) (UpstreamStatsResponse, error) {
	var response UpstreamStatsResponse
	url := c.config.BundleServiceHostname + UpstreamStatsPath + "?host=" + host

	request, err := CreateRequest(ctx, http.MethodGet, url, nil)

	if err != nil {
		return response, err
	}

	err = Call(*c, request, &response)

	return response, err
}

// RequestError provides additional details about the failed request.
type RequestError struct {
	message    string
	URL        string
	StatusCode int
}

// Error implements the error interface for RequestError.
func (err *RequestError) Error() string {
	return err.message
}

// NewError creates a new RequestError
func NewError(message, url string, statusCode int) error {
	return &RequestError{message, url, statusCode}
}

// CreateRequest isolates duplicate code in creating http requests,
// params are encoded as the JSON body unless nil
func CreateRequest(ctx context.Context, method string, path string, params interface{}) (*http.Request, error) {
	var body io.Reader
	if params != nil {
		var buf bytes.Buffer
		err := json.NewEncoder(&buf).Encode(&params)
		if err != nil {
			return nil, err
		}
		body = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return req, &RequestError{
			URL:     path,
			message: err.Error(),
		}
	}
	return req, nil
}

// Call makes an http request to a JSON HTTP api
// decoding the JSON response to the result interface if non-nil
// returning error (if any)
func Call(client BundleServiceClient, request *http.Request, result interface{}) error {
	response, err := client.Do(request)

	if err != nil {
		return &RequestError{
			URL:     request.URL.String(),
			message: err.Error(),
		}
	}

	defer response.Body.Close()

	if !(response.StatusCode >= 200 && response.StatusCode <= 299) {
		requestURL := request.URL.String()
		return &RequestError{
			StatusCode: response.StatusCode,
			URL:        requestURL,
			message:    fmt.Sprintf("request to %s error server http error %d", requestURL, response.StatusCode),
		}
	}

	// If no result is expected, don't attempt to decode a potentially
	// empty response stream and avoid incurring EOF errors
	if result == nil {
		return nil
	}

	if client.DebugLogResponses {
		bodyBytes, err := io.ReadAll(response.Body)
		if err != nil {
			return &RequestError{
				URL:     request.URL.String(),
				message: err.Error(),
			}
		}
		fmt.Printf("Request Path %s \n Response Body %s \n  Response Status Code %d \n ", request.URL, string(bodyBytes), response.StatusCode)

		// Repopulate body with the data read
		response.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}

	err = json.NewDecoder(response.Body).Decode(result)
	if err != nil {
		return &RequestError{
			URL:     request.URL.String(),
			message: err.Error(),
		}
	}
	return nil
}
