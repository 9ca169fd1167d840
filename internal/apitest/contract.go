package apitest

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

//go:embed openapi.yaml
var contractSpec []byte

// Finding is one request that did not match the API contract.
type Finding struct {
	Method  string
	Path    string
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %s: %s", f.Method, f.Path, f.Message)
}

// Contract validates outgoing client requests against the backend's
// OpenAPI description.
type Contract struct {
	doc *openapi3.T

	mu       sync.Mutex
	findings []Finding
}

// LoadContract parses and validates the embedded OpenAPI document.
func LoadContract() (*Contract, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(contractSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}

	return &Contract{doc: doc}, nil
}

// Check validates r and records a Finding on mismatch. The request body is
// restored so handlers can still read it.
func (c *Contract) Check(r *http.Request) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		r.Body.Close()
	}
	restore := func() { r.Body = io.NopCloser(bytes.NewReader(body)) }
	restore()
	defer restore()

	specPath, pathItem, params := c.findPath(r.URL.Path)
	if pathItem == nil {
		c.record(r, "path not in contract")
		return
	}
	op := pathItem.GetOperation(r.Method)
	if op == nil {
		c.record(r, "method not in contract")
		return
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: params,
		Route: &routers.Route{
			Spec:      c.doc,
			Path:      specPath,
			PathItem:  pathItem,
			Method:    r.Method,
			Operation: op,
		},
	}
	if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
		c.record(r, err.Error())
	}
}

// Findings returns every recorded mismatch.
func (c *Contract) Findings() []Finding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Finding(nil), c.findings...)
}

func (c *Contract) record(r *http.Request, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.findings = append(c.findings, Finding{Method: r.Method, Path: r.URL.Path, Message: msg})
}

// findPath matches a concrete request path to a templated contract path.
// Literal paths win over templated ones.
func (c *Contract) findPath(requestPath string) (string, *openapi3.PathItem, map[string]string) {
	if item := c.doc.Paths.Value(requestPath); item != nil {
		return requestPath, item, map[string]string{}
	}

	requestSegments := strings.Split(strings.Trim(requestPath, "/"), "/")
	for specPath, item := range c.doc.Paths.Map() {
		specSegments := strings.Split(strings.Trim(specPath, "/"), "/")
		if len(requestSegments) != len(specSegments) {
			continue
		}

		params := map[string]string{}
		match := true
		for i, specSeg := range specSegments {
			if strings.HasPrefix(specSeg, "{") && strings.HasSuffix(specSeg, "}") {
				params[strings.Trim(specSeg, "{}")] = requestSegments[i]
				continue
			}
			if requestSegments[i] != specSeg {
				match = false
				break
			}
		}
		if match {
			return specPath, item, params
		}
	}

	return "", nil, nil
}
