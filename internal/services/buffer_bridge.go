package services

import (
	"context"
	"encoding/json"

	"github.com/retexhub/backend/domain"
	"github.com/retexhub/backend/internal/infrastructure/buffer"
	"github.com/retexhub/backend/usecase"
)

// BufferBridge adapts the buffer processor to the usecase.OperationBuffer port.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferSubmission(ctx context.Context, contribution *domain.Contribution) error {
	if b.processor == nil || contribution == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(contribution)
	if err != nil {
		return err
	}
	item := buffer.Item{
		TrackingID: contribution.TrackingID,
		Entity:     buffer.EntityContribution,
		Operation:  buffer.OperationSubmit,
		Data:       payload,
		Priority:   4,
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
