package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/camuig/signal-desk/internal/config"
	"github.com/camuig/signal-desk/internal/logger"
	"github.com/camuig/signal-desk/internal/signals"
)

var ErrEmptyText = errors.New("nothing to draft from")

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Drafter asks the DeepSeek chat endpoint to turn free text into signal drafts.
type Drafter struct {
	client  chatCompleter
	model   string
	timeout time.Duration
	logger  *logger.Logger
}

func NewDrafter(cfg config.DeepSeekConfig, timeout time.Duration, log *logger.Logger) *Drafter {
	ocfg := openai.DefaultConfig(cfg.APIKey)
	ocfg.BaseURL = cfg.BaseURL

	return &Drafter{
		client:  openai.NewClientWithConfig(ocfg),
		model:   cfg.Model,
		timeout: timeout,
		logger:  log,
	}
}

// Draft returns unsaved signals. Callers decide whether to add them.
func (d *Drafter) Draft(ctx context.Context, req DraftRequest) ([]signals.Signal, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	d.logger.Info("sending draft request to DeepSeek", "chars", len(req.Text), "open", len(req.Open))

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("deepseek API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("deepseek returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	d.logger.Debug("AI raw response", "content", raw)

	decisions, err := ParseDecisions(raw)
	if err != nil {
		return nil, fmt.Errorf("parse AI response: %w", err)
	}

	drafts := make([]signals.Signal, 0, len(decisions))
	for _, dec := range decisions {
		if s, ok := dec.ToSignal(); ok {
			drafts = append(drafts, s)
		}
	}
	d.logger.Info("signal drafts ready", "decisions", len(decisions), "drafts", len(drafts))
	return drafts, nil
}
