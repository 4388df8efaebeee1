// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import "fmt"

// Validator is implemented by every response schema.
type Validator interface {
	Validate() error
}

// =============================================================================
// MODEL DIRECTORY
// =============================================================================

// Model is one entry of the model directory. Only ID is required; the
// remaining fields are passed through when the directory supplies them.
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	ContextLength int    `json:"context_length,omitempty"`
}

// ModelsResponse is the body of GET /models: {"data": [{"id": ...}, ...]}.
type ModelsResponse struct {
	Data []Model `json:"data"`
}

// Validate requires the data array and an id on every entry.
// An empty array is valid.
func (r *ModelsResponse) Validate() error {
	if r.Data == nil {
		return &ValidationError{Field: "data", Reason: "is missing"}
	}
	for i, m := range r.Data {
		if m.ID == "" {
			return &ValidationError{Field: fmt.Sprintf("data[%d].id", i), Reason: "is empty"}
		}
	}
	return nil
}

// =============================================================================
// OAUTH EXCHANGE
// =============================================================================

// ExchangeRequest is the body of POST /api/oauth.
type ExchangeRequest struct {
	Code string `json:"code"`
}

// ExchangeResponse is the body returned by the exchange endpoint. Key is
// optional.
type ExchangeResponse struct {
	Key string `json:"key,omitempty"`
}

// Validate accepts any object; the key is optional.
func (r *ExchangeResponse) Validate() error {
	return nil
}

// =============================================================================
// COMPLETIONS
// =============================================================================

// CompletionRequest is the body of POST /api/completions.
type CompletionRequest struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
	Text   string `json:"text"`
}

// CompletionMessage is the assistant message of a choice. Content is a
// pointer so that an absent field can be told apart from an empty reply.
type CompletionMessage struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content"`
}

// CompletionChoice is one element of the choices array.
type CompletionChoice struct {
	Message      *CompletionMessage `json:"message"`
	FinishReason string             `json:"finish_reason,omitempty"`
}

// CompletionResponse is the body returned by the completion endpoint.
type CompletionResponse struct {
	ID      string             `json:"id,omitempty"`
	Model   string             `json:"model,omitempty"`
	Choices []CompletionChoice `json:"choices"`
}

// Validate requires choices[0].message.content.
func (r *CompletionResponse) Validate() error {
	if len(r.Choices) == 0 {
		return &ValidationError{Field: "choices[0]", Reason: "is missing"}
	}
	msg := r.Choices[0].Message
	if msg == nil {
		return &ValidationError{Field: "choices[0].message", Reason: "is missing"}
	}
	if msg.Content == nil {
		return &ValidationError{Field: "choices[0].message.content", Reason: "is missing"}
	}
	return nil
}

// Content returns choices[0].message.content. Call only after Validate.
func (r *CompletionResponse) Content() string {
	return *r.Choices[0].Message.Content
}
