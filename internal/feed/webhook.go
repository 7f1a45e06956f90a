package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookNotifier posts notifications as JSON to a bridge endpoint. The
// bridge is responsible for delivering them to the actual chat platform.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (w *WebhookNotifier) Send(ctx context.Context, channelID, text string) error {
	body, err := json.Marshal(map[string]string{"channel_id": channelID, "text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify webhook returned %s", resp.Status)
	}
	return nil
}

// WebhookBoard maintains the status-board message through a bridge endpoint.
// Editing PUTs to {url}/{messageID}; a 404 (message deleted externally) or an
// empty id falls back to POST {url}, and the bridge replies with the id of
// the freshly created message.
type WebhookBoard struct {
	URL    string
	Client *http.Client
}

func NewWebhookBoard(url string) *WebhookBoard {
	return &WebhookBoard{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

type boardReply struct {
	MessageID string `json:"message_id"`
}

func (w *WebhookBoard) Publish(ctx context.Context, channelID, messageID, content string) (string, error) {
	if messageID != "" {
		status, err := w.do(ctx, http.MethodPut, w.URL+"/"+messageID, channelID, content, nil)
		if err != nil {
			return "", err
		}
		if status != http.StatusNotFound {
			return messageID, nil
		}
		// fall through: the board message is gone, recreate it
	}
	var reply boardReply
	if _, err := w.do(ctx, http.MethodPost, w.URL, channelID, content, &reply); err != nil {
		return "", err
	}
	return reply.MessageID, nil
}

func (w *WebhookBoard) do(ctx context.Context, method, url, channelID, content string, out *boardReply) (int, error) {
	body, err := json.Marshal(map[string]string{"channel_id": channelID, "content": content})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("board webhook returned %s", resp.Status)
	}
	if out != nil {
		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if err != nil {
			return resp.StatusCode, err
		}
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode board reply: %w", err)
		}
	}
	return resp.StatusCode, nil
}
