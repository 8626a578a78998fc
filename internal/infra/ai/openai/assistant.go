package openai

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/resume-scrubber/internal/domain/ai"
)

const toolFileSearch = "file_search"

func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (string, error) {
	api, err := c.client()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	f, err := api.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   data,
		Purpose: openai.PurposeAssistants,
	})
	observe(opUploadFile, err)
	if err != nil {
		return "", mapError(err)
	}
	c.logger.Debug("file uploaded", "file_id", f.ID, "bytes", len(data))
	return f.ID, nil
}

func (c *Client) CreateThread(ctx context.Context) (string, error) {
	api, err := c.client()
	if err != nil {
		return "", err
	}
	th, err := api.CreateThread(ctx, openai.ThreadRequest{})
	observe(opCreateThread, err)
	if err != nil {
		return "", mapError(err)
	}
	return th.ID, nil
}

// AddMessage posts a user message with fileID attached for file search.
func (c *Client) AddMessage(ctx context.Context, threadID, content, fileID string) error {
	api, err := c.client()
	if err != nil {
		return err
	}
	_, err = api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    domai.RoleUser,
		Content: content,
		Attachments: []openai.ThreadAttachment{{
			FileID: fileID,
			Tools:  []openai.ThreadAttachmentTool{{Type: toolFileSearch}},
		}},
	})
	observe(opAddMessage, err)
	return mapError(err)
}

func (c *Client) StartRun(ctx context.Context, threadID, assistantID string) (string, error) {
	api, err := c.client()
	if err != nil {
		return "", err
	}
	run, err := api.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: assistantID})
	observe(opStartRun, err)
	if err != nil {
		return "", mapError(err)
	}
	c.logger.Debug("run started", "thread_id", threadID, "run_id", run.ID)
	return run.ID, nil
}

func (c *Client) RunStatus(ctx context.Context, threadID, runID string) (domai.RunStatus, error) {
	api, err := c.client()
	if err != nil {
		return "", err
	}
	run, err := api.RetrieveRun(ctx, threadID, runID)
	observe(opRetrieveRun, err)
	if err != nil {
		return "", mapError(err)
	}
	return domai.RunStatus(run.Status), nil
}

// ListMessages returns the thread messages in provider order (newest first).
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]domai.Message, error) {
	api, err := c.client()
	if err != nil {
		return nil, err
	}
	list, err := api.ListMessage(ctx, threadID, nil, nil, nil, nil, nil)
	observe(opListMessages, err)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]domai.Message, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg := domai.Message{Role: string(m.Role)}
		for _, mc := range m.Content {
			content := domai.Content{Type: string(mc.Type)}
			if mc.Text != nil {
				content.Text = mc.Text.Value
			}
			msg.Content = append(msg.Content, content)
		}
		out = append(out, msg)
	}
	return out, nil
}
