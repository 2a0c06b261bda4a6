// Package ocrhttp is an HTTP client for an asynchronous document-analysis API
// that speaks the start/get job protocol used by ocr.Service.
package ocrhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"onboardhub/internal/ocr"
)

const (
	analysesPath       = "/analyses"
	invalidJobErrorTag = "InvalidJobIdException"
	maxPages           = 100
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     logrus.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("ocr base url is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("ocr base url: %w", err)
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

var _ ocr.Service = (*Client)(nil)

type s3Object struct {
	Bucket string `json:"Bucket"`
	Name   string `json:"Name"`
}

type startRequest struct {
	DocumentLocation struct {
		S3Object s3Object `json:"S3Object"`
	} `json:"DocumentLocation"`
	ClientRequestToken string        `json:"ClientRequestToken,omitempty"`
	FeatureTypes       []ocr.Feature `json:"FeatureTypes"`
}

type startResponse struct {
	JobID string `json:"JobId"`
}

type getResponse struct {
	JobStatus     ocr.JobStatus `json:"JobStatus"`
	StatusMessage string        `json:"StatusMessage,omitempty"`
	Blocks        []ocr.Block   `json:"Blocks"`
	NextToken     string        `json:"NextToken,omitempty"`
}

type apiError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

// StartAnalysis submits a document for table and form analysis.
func (c *Client) StartAnalysis(ctx context.Context, req ocr.AnalysisRequest) (string, error) {
	var body startRequest
	body.DocumentLocation.S3Object = s3Object{Bucket: req.Location.Bucket, Name: req.Location.Key}
	body.ClientRequestToken = req.ClientToken
	body.FeatureTypes = req.Features
	if body.FeatureTypes == nil {
		body.FeatureTypes = []ocr.Feature{}
	}

	var out startResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+analysesPath, body, &out); err != nil {
		return "", fmt.Errorf("start analysis: %w", err)
	}
	if out.JobID == "" {
		return "", errors.New("start analysis: empty job id")
	}
	return out.JobID, nil
}

// GetAnalysis fetches the job status. Once the job has succeeded every result
// page is followed and the blocks are concatenated.
func (c *Client) GetAnalysis(ctx context.Context, jobID string) (ocr.AnalysisResult, error) {
	res := ocr.AnalysisResult{JobID: jobID}
	endpoint := c.baseURL + analysesPath + "/" + url.PathEscape(jobID)
	token := ""
	for page := 0; page < maxPages; page++ {
		u := endpoint
		if token != "" {
			u += "?" + url.Values{"next_token": {token}}.Encode()
		}
		var out getResponse
		if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
			return res, err
		}
		res.Status = out.JobStatus
		res.StatusMessage = out.StatusMessage
		res.Blocks = append(res.Blocks, out.Blocks...)
		if out.JobStatus != ocr.JobSucceeded || out.NextToken == "" {
			return res, nil
		}
		token = out.NextToken
	}
	c.log.WithField("ocr_job_id", jobID).Warn("ocr result truncated at page limit")
	return res, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var reader io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode ocr response: %w", err)
	}
	return nil
}

func responseError(code int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae)
	if code == http.StatusNotFound || strings.HasSuffix(ae.Type, invalidJobErrorTag) {
		return ocr.ErrInvalidJob
	}
	msg := ae.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return fmt.Errorf("ocr api error %d: %s", code, msg)
}
