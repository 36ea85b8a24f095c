package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Exporter pushes metric snapshots to an external system.
type Exporter interface {
	Export(ctx context.Context, snapshot map[string]any) error
	Flush(ctx context.Context) error
	Close() error
}

// HTTPExporter batches snapshots and POSTs them to an external endpoint.
type HTTPExporter struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	buffer     []map[string]any
	batchSize  int
}

func NewHTTPExporter(endpoint, apiKey string, batchSize int) *HTTPExporter {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &HTTPExporter{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		buffer:    make([]map[string]any, 0, batchSize),
		batchSize: batchSize,
	}
}

func (e *HTTPExporter) Export(ctx context.Context, snapshot map[string]any) error {
	e.buffer = append(e.buffer, snapshot)
	if len(e.buffer) >= e.batchSize {
		return e.Flush(ctx)
	}
	return nil
}

func (e *HTTPExporter) Flush(ctx context.Context) error {
	if len(e.buffer) == 0 {
		return nil
	}
	payload, err := json.Marshal(e.buffer)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics data: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to export analytics: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("analytics endpoint returned status %d", resp.StatusCode)
	}
	e.buffer = e.buffer[:0]
	return nil
}

func (e *HTTPExporter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Flush(ctx)
}

// ConsoleExporter writes snapshots to stdout, useful for demos.
type ConsoleExporter struct {
	prefix string
	out    io.Writer
}

func NewConsoleExporter(prefix string) *ConsoleExporter {
	return &ConsoleExporter{prefix: prefix, out: os.Stdout}
}

func (e *ConsoleExporter) Export(_ context.Context, snapshot map[string]any) error {
	b, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "%s %s\n", e.prefix, b)
	return err
}

func (e *ConsoleExporter) Flush(context.Context) error { return nil }
func (e *ConsoleExporter) Close() error                { return nil }
