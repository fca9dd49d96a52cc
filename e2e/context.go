// Package e2e drives a running sportclub server over HTTP with godog
// scenarios. Point E2E_BASE_URL at the server; the admin credentials come
// from E2E_ADMIN_EMAIL and E2E_ADMIN_PASSWORD and must match the server's
// bootstrap admin.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext holds per-scenario HTTP state.
type TestContext struct {
	BaseURL       string
	AdminEmail    string
	AdminPassword string

	client     *http.Client
	lastStatus int
	lastBody   []byte
	tokens     map[string]string
	saved      map[string]string
	actor      string
	nonce      string
}

func NewTestContext(baseURL, adminEmail, adminPassword string) *TestContext {
	tc := &TestContext{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
	tc.Reset()
	return tc
}

// Reset clears state between scenarios. The nonce keeps emails unique
// across runs against the same database.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.tokens = make(map[string]string)
	tc.saved = make(map[string]string)
	tc.actor = ""
	tc.nonce = fmt.Sprintf("%d", time.Now().UnixNano())
}

func (tc *TestContext) Nonce() string { return tc.nonce }

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.do(http.MethodDelete, path, nil)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+tc.Expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tc.tokens[tc.actor]; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

func (tc *TestContext) LastBody() string { return string(tc.lastBody) }

// GetResponseField resolves a dotted path such as "directive.president"
// in the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var cur any
	if err := json.Unmarshal(tc.lastBody, &cur); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	for _, part := range strings.Split(field, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		cur, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not found in %s", field, tc.lastBody)
		}
	}
	return cur, nil
}

func (tc *TestContext) SetToken(actor, token string) { tc.tokens[actor] = token }

// ActAs makes actor's token authenticate the following requests. An empty
// actor sends no token.
func (tc *TestContext) ActAs(actor string) { tc.actor = actor }

func (tc *TestContext) Save(name, value string) { tc.saved[name] = value }

func (tc *TestContext) Saved(name string) (string, bool) {
	v, ok := tc.saved[name]
	return v, ok
}

// Expand replaces {name} placeholders with saved values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.saved {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

func (tc *TestContext) AdminCredentials() (string, string) {
	return tc.AdminEmail, tc.AdminPassword
}
