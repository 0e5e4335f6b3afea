package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"PivotPipe/internal/domain/events"
	"PivotPipe/internal/domain/models"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/logger"
)

// FillHandler decodes fill acknowledgements from the execution layer's
// topic and forwards them to the pipeline's single ingress channel, keeping
// bus dispatch on one logical thread. Fills must carry an explicit
// intent_id; malformed payloads are rejected, not shape-probed.
type FillHandler struct {
	topic   string
	ingress chan<- bus.Event
	log     *logger.Logger
}

// NewFillHandler creates the handler for the given topic.
func NewFillHandler(topic string, ingress chan<- bus.Event, log *logger.Logger) *FillHandler {
	return &FillHandler{topic: topic, ingress: ingress, log: log}
}

// Topic returns the fill-acknowledgement topic.
func (h *FillHandler) Topic() string { return h.topic }

// Handle decodes one fill acknowledgement.
func (h *FillHandler) Handle(_ context.Context, value []byte) error {
	var fill models.OrderFill
	if err := json.Unmarshal(value, &fill); err != nil {
		h.log.Warn("malformed fill acknowledgement rejected", logger.Error(err))
		return fmt.Errorf("decode fill: %w", err)
	}
	if fill.IntentID == "" {
		h.log.Warn("fill acknowledgement without intent_id rejected")
		return fmt.Errorf("fill missing intent_id")
	}
	h.ingress <- events.OrderFilled{Fill: fill}
	return nil
}
