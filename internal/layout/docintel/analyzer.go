// Package docintel implements port.LayoutAnalyzer against the Azure AI
// Document Intelligence (Form Recognizer) prebuilt-layout REST API.
package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"invoiceflow/internal/config"
	"invoiceflow/internal/port"
	"invoiceflow/internal/retry"
)

const (
	defaultAPIVersion   = "2023-07-31"
	defaultModelID      = "prebuilt-layout"
	defaultPollInterval = time.Second
)

// Analyzer submits a document for analysis and polls the returned
// operation until it completes.
type Analyzer struct {
	endpoint     string
	apiKey       string
	apiVersion   string
	modelID      string
	pollInterval time.Duration
	client       *http.Client
	sleep        retry.SleepFunc
}

// NewAnalyzer creates a Document Intelligence analyzer from the layout config.
func NewAnalyzer(cfg *config.LayoutConfig) (*Analyzer, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("docintel: endpoint is required")
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 180 * time.Second
	}
	return &Analyzer{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		apiVersion:   apiVersion,
		modelID:      modelID,
		pollInterval: poll,
		client:       &http.Client{Timeout: timeout},
		sleep:        retry.Sleep,
	}, nil
}

// WithSleep replaces the poll wait, for tests.
func (a *Analyzer) WithSleep(sleep retry.SleepFunc) *Analyzer {
	a.sleep = sleep
	return a
}

func (a *Analyzer) analyzeURL() string {
	return fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s",
		a.endpoint, a.modelID, a.apiVersion)
}

// Analyze implements port.LayoutAnalyzer.
func (a *Analyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.LayoutResult, error) {
	data, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, fmt.Errorf("docintel: reading document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.analyzeURL(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("docintel: creating request: %w", err)
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docintel: calling analyze: %w", err)
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("docintel: reading analyze response: %w", readErr)
	}

	if resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("docintel: analyze error (status %d): %s", resp.StatusCode, string(body))
	}
	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return nil, errors.New("docintel: analyze response missing Operation-Location")
	}

	return a.poll(ctx, opURL)
}

func (a *Analyzer) poll(ctx context.Context, opURL string) (*port.LayoutResult, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("docintel: creating poll request: %w", err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("docintel: polling operation: %w", err)
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("docintel: reading poll response: %w", readErr)
		}

		wait := a.pollInterval
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				wait = time.Duration(secs) * time.Second
			}
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("docintel: poll error (status %d): %s", resp.StatusCode, string(body))
		default:
			var op operation
			if err := json.Unmarshal(body, &op); err != nil {
				return nil, fmt.Errorf("docintel: decoding operation: %w", err)
			}
			switch op.Status {
			case "succeeded":
				if op.AnalyzeResult == nil {
					return nil, errors.New("docintel: operation succeeded without a result")
				}
				return op.AnalyzeResult.toLayout(), nil
			case "failed", "canceled":
				msg := op.Status
				if op.Error != nil {
					msg = fmt.Sprintf("%s: %s", op.Error.Code, op.Error.Message)
				}
				return nil, fmt.Errorf("docintel: analysis %s", msg)
			}
		}

		if err := a.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("docintel: waiting for operation: %w", err)
		}
	}
}

type operation struct {
	Status        string         `json:"status"`
	AnalyzeResult *analyzeResult `json:"analyzeResult"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type analyzeResult struct {
	Pages []struct {
		PageNumber int `json:"pageNumber"`
		Lines      []struct {
			Content string    `json:"content"`
			Polygon []float64 `json:"polygon"`
		} `json:"lines"`
	} `json:"pages"`
	Tables []struct {
		Cells []struct {
			RowIndex    int    `json:"rowIndex"`
			ColumnIndex int    `json:"columnIndex"`
			Content     string `json:"content"`
		} `json:"cells"`
		BoundingRegions []struct {
			PageNumber int `json:"pageNumber"`
		} `json:"boundingRegions"`
	} `json:"tables"`
}

func (r *analyzeResult) toLayout() *port.LayoutResult {
	out := &port.LayoutResult{}
	for _, p := range r.Pages {
		page := port.LayoutPage{Number: p.PageNumber}
		for _, l := range p.Lines {
			page.Lines = append(page.Lines, port.LayoutLine{
				Content: l.Content,
				Polygon: toPoints(l.Polygon),
			})
		}
		out.Pages = append(out.Pages, page)
	}
	for _, t := range r.Tables {
		table := port.LayoutTable{}
		for _, c := range t.Cells {
			table.Cells = append(table.Cells, port.LayoutCell{
				RowIndex:    c.RowIndex,
				ColumnIndex: c.ColumnIndex,
				Content:     c.Content,
			})
		}
		for _, br := range t.BoundingRegions {
			table.Pages = append(table.Pages, br.PageNumber)
		}
		out.Tables = append(out.Tables, table)
	}
	return out
}

// toPoints converts the flat [x1, y1, x2, y2, ...] polygon encoding.
func toPoints(flat []float64) []port.Point {
	pts := make([]port.Point, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		pts = append(pts, port.Point{X: flat[i], Y: flat[i+1]})
	}
	return pts
}
