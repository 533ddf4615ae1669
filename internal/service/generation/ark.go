package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

// ArkGenerator adapts an eino chat model to the Generator contract.
type ArkGenerator struct {
	chatModel model.ChatModel
	log       *zap.Logger
}

// NewArkGenerator wraps an already constructed chat model.
func NewArkGenerator(chatModel model.ChatModel, log *zap.Logger) (*ArkGenerator, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ArkGenerator{chatModel: chatModel, log: log}, nil
}

// Generate sends the prompt as a single user message and returns the raw
// completion text.
func (g *ArkGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := g.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrBackend)
	}
	g.log.Debug("generated completion", zap.Int("length", len(msg.Content)))
	return msg.Content, nil
}
