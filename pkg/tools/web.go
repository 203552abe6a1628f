package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const webFetchTimeout = 20 * time.Second
const webMaxBodyLen = 1 << 20 // 1 MiB

// WebProbeTool fetches a URL and returns a structural summary of its HTML:
// title, headings, forms and their fields, links, and a handful of
// representative repeated elements — enough for the model to reason about
// page structure without a full browser (spec §1's Non-goals exclude
// JS-rendered page driving).
type WebProbeTool struct {
	httpClient *http.Client
}

func NewWebProbeTool() *WebProbeTool {
	return &WebProbeTool{httpClient: &http.Client{Timeout: webFetchTimeout}}
}

func (t *WebProbeTool) Name() string { return "web_probe" }

func (t *WebProbeTool) Description() string {
	return "Fetch a URL's static HTML and summarize its structure: title, headings, forms, links, and repeated list/card elements with CSS selector guesses."
}

func (t *WebProbeTool) ParametersSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"url"},
	}
}

func (t *WebProbeTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var params struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &params); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}
	if params.URL == "" {
		return "", fmt.Errorf("url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, params.URL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; noctua-recon/1.0)")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, webMaxBodyLen))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	summary := summarizeDocument(doc, resp.StatusCode)
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type probeForm struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []probeField `json:"fields"`
}

type probeField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type probeSummary struct {
	StatusCode int         `json:"statusCode"`
	Title      string      `json:"title"`
	Headings   []string    `json:"headings"`
	Forms      []probeForm `json:"forms"`
	Links      []string    `json:"links"`
	RepeatedElements []repeatedElement `json:"repeatedElements"`
}

type repeatedElement struct {
	Selector string `json:"selector"`
	Count    int    `json:"count"`
	Sample   string `json:"sample"`
}

func summarizeDocument(doc *goquery.Document, statusCode int) probeSummary {
	summary := probeSummary{StatusCode: statusCode, Title: strings.TrimSpace(doc.Find("title").First().Text())}

	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		if len(summary.Headings) >= 20 {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text != "" {
			summary.Headings = append(summary.Headings, text)
		}
	})

	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		form := probeForm{}
		form.Action, _ = s.Attr("action")
		form.Method, _ = s.Attr("method")
		if form.Method == "" {
			form.Method = "GET"
		}
		s.Find("input, select, textarea").Each(func(_ int, field *goquery.Selection) {
			name, _ := field.Attr("name")
			typ, ok := field.Attr("type")
			if !ok {
				typ = goquery.NodeName(field)
			}
			if name != "" {
				form.Fields = append(form.Fields, probeField{Name: name, Type: typ})
			}
		})
		summary.Forms = append(summary.Forms, form)
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if len(summary.Links) >= 40 {
			return
		}
		href, _ := s.Attr("href")
		if href != "" {
			summary.Links = append(summary.Links, href)
		}
	})

	summary.RepeatedElements = findRepeatedElements(doc)
	return summary
}

// findRepeatedElements looks for classes that tag 4 or more sibling-ish
// elements — a cheap structural signal for list/card/result rows that the
// recon stage can propose as scrape targets.
func findRepeatedElements(doc *goquery.Document) []repeatedElement {
	counts := map[string]int{}
	samples := map[string]string{}

	doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		for _, cls := range strings.Fields(class) {
			selector := "." + cls
			counts[selector]++
			if _, ok := samples[selector]; !ok {
				text := strings.TrimSpace(s.Text())
				if len(text) > 120 {
					text = text[:120] + "..."
				}
				samples[selector] = text
			}
		}
	})

	var result []repeatedElement
	for selector, count := range counts {
		if count >= 4 {
			result = append(result, repeatedElement{Selector: selector, Count: count, Sample: samples[selector]})
		}
		if len(result) >= 15 {
			break
		}
	}
	return result
}

// WebInterceptAPITool fetches a URL and reports whether its response looks
// like a JSON API payload (as opposed to HTML), surfacing the parsed body
// so the recon stage can decide whether the target exposes a scrapeable
// XHR/JSON endpoint it can hit directly instead of parsing HTML.
type WebInterceptAPITool struct {
	httpClient *http.Client
}

func NewWebInterceptAPITool() *WebInterceptAPITool {
	return &WebInterceptAPITool{httpClient: &http.Client{Timeout: webFetchTimeout}}
}

func (t *WebInterceptAPITool) Name() string { return "web_intercept_api" }

func (t *WebInterceptAPITool) Description() string {
	return "Fetch a candidate API/XHR URL and report its content type, status, and (if JSON) a pretty-printed preview of the body."
}

func (t *WebInterceptAPITool) ParametersSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url":    map[string]interface{}{"type": "string"},
			"method": map[string]interface{}{"type": "string"},
			"headers": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": "string"},
			},
		},
		"required": []interface{}{"url"},
	}
}

func (t *WebInterceptAPITool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var params struct {
		URL     string            `json:"url"`
		Method  string            `json:"method"`
		Headers map[string]string `json:"headers"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &params); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}
	if params.URL == "" {
		return "", fmt.Errorf("url is required")
	}
	method := params.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, params.URL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; noctua-recon/1.0)")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	for k, v := range params.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, webMaxBodyLen))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	result := map[string]interface{}{
		"statusCode":  resp.StatusCode,
		"contentType": contentType,
		"isJSON":      strings.Contains(contentType, "json"),
	}

	if strings.Contains(contentType, "json") {
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err == nil {
			result["body"] = parsed
		} else {
			result["bodyPreview"] = truncate(string(body), 2000)
		}
	} else {
		result["bodyPreview"] = truncate(string(body), 2000)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
