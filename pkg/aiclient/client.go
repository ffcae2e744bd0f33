// Package aiclient is a thin client for the OpenAI-compatible completion
// API that backs the paid search features.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const defaultModel = "gpt-4o-mini"

type Client struct {
	httpCli *http.Client
	baseURL string
	apiKey  string
}

func New(httpCli *http.Client, baseURL string, apiKey string) *Client {
	return &Client{
		httpCli: httpCli,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// FindLeads asks the model for social posts relevant to a product description.
func (c *Client) FindLeads(ctx context.Context, query string) (string, error) {

	return c.complete(ctx, []message{
		{Role: "system", Content: "You find recent social media posts from people looking for products like the one described. Reply with a JSON array of posts, each with platform, url and excerpt."},
		{Role: "user", Content: query},
	})

}

// DescribeImage runs the vision model over an image URL and returns search
// keywords for the pictured product.
func (c *Client) DescribeImage(ctx context.Context, imageURL string) (string, error) {

	return c.complete(ctx, []message{
		{Role: "user", Content: []map[string]any{
			{"type": "text", "text": "List search keywords for the product in this image."},
			{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
		}},
	})

}

// Answer responds to a question against previously extracted page content.
func (c *Client) Answer(ctx context.Context, question string, pageText string) (string, error) {

	return c.complete(ctx, []message{
		{Role: "system", Content: "Answer the question using only the provided page content."},
		{Role: "user", Content: fmt.Sprintf("Page content:\n%s\n\nQuestion: %s", pageText, question)},
	})

}

func (c *Client) complete(ctx context.Context, messages []message) (string, error) {

	payload, err := json.Marshal(&chatRequest{
		Model:    defaultModel,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpCli.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	var resp chatResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		if resp.Error != nil {
			return "", fmt.Errorf("completion http %d: %s", res.StatusCode, resp.Error.Message)
		}
		return "", fmt.Errorf("completion http %d", res.StatusCode)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil

}
