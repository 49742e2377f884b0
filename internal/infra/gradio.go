package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// InferenceClient is the external image-editing collaborator. It is
// treated as unreliable: any non-2xx response, malformed payload or
// timeout is a plain error and the caller decides how to settle.
type InferenceClient interface {
	Edit(ctx context.Context, image, prompt, style string) (string, error)
}

// GradioClient talks to a Gradio-hosted space: one POST to enqueue the
// prediction, then a poll of the returned event id as a server-sent
// event stream. A single edit can legitimately run 10-120 seconds.
type GradioClient struct {
	baseURL string
	client  *http.Client
}

func NewGradioClient(spaceID string, timeout time.Duration) *GradioClient {
	return &GradioClient{
		baseURL: fmt.Sprintf("https://%s.hf.space", strings.ReplaceAll(spaceID, "/", "-")),
		client:  &http.Client{Timeout: timeout},
	}
}

type gradioCallResponse struct {
	EventID string `json:"event_id"`
}

type gradioOutput struct {
	Output struct {
		Data []string `json:"data"`
	} `json:"output"`
}

func (g *GradioClient) Edit(ctx context.Context, image, prompt, style string) (string, error) {
	if style == "" {
		style = "Photo-to-Anime"
	}

	payload, err := json.Marshal(map[string]interface{}{
		"data": []string{image, prompt, style},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/gradio_api/call/predict", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("space call failed: %s", resp.Status)
	}

	var call gradioCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return "", fmt.Errorf("invalid space response: %w", err)
	}
	if call.EventID == "" {
		return "", fmt.Errorf("space returned no event id")
	}

	return g.pollResult(ctx, call.EventID)
}

func (g *GradioClient) pollResult(ctx context.Context, eventID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/gradio_api/call/predict/%s", g.baseURL, eventID), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("result poll failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// The stream interleaves heartbeat and progress events; only lines
	// carrying an output payload matter.
	for _, line := range strings.Split(string(body), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var out gradioOutput
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &out); err != nil {
			continue
		}
		if len(out.Output.Data) > 0 && out.Output.Data[0] != "" {
			return out.Output.Data[0], nil
		}
	}

	return "", fmt.Errorf("no valid output from space")
}
