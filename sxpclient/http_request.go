// Copyright (c) 2025 The sxpgov developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sxpclient

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

func (c *Client) httpRequest(method, url string, payload io.Reader, out any) error {
	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return errors.Wrap(err, "perform request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response body")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "%s", strings.TrimSpace(string(body)))
	default:
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func (c *Client) httpGET(url string, out any) error {
	return c.httpRequest(http.MethodGet, url, nil, out)
}

func (c *Client) httpPOST(url string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encode payload")
	}
	return c.httpRequest(http.MethodPost, url, bytes.NewReader(data), out)
}
