package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient(apiURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(apiURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
}

func runSearch(c *resty.Client, query *string, page, pageSize int, out io.Writer) error {
	if page < 1 {
		return fmt.Errorf("--page must be >= 1")
	}
	if pageSize < 0 {
		return fmt.Errorf("--page-size must not be negative")
	}
	req := c.R().SetQueryParam("page", strconv.Itoa(page))
	if query != nil {
		req.SetQueryParam("query", *query)
	}
	if pageSize > 0 {
		req.SetQueryParam("page_size", strconv.Itoa(pageSize))
	}
	resp, err := req.Get("/search")
	if err != nil {
		return err
	}
	return printJSON(resp, out)
}

func runGet(c *resty.Client, path string, out io.Writer) error {
	resp, err := c.R().Get(path)
	if err != nil {
		return err
	}
	return printJSON(resp, out)
}

// printJSON pretty-prints a 200 body, or returns the server's error.
func printJSON(resp *resty.Response, out io.Writer) error {
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), bytes.TrimSpace(resp.Body()))
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, resp.Body(), "", "  "); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(out)
	return err
}
