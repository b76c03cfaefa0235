package playlist

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// publishEvent broadcasts a mutation to the realtime channel. Best-effort:
// a publish failure is logged and never fails the request that caused it.
func (s *Server) publishEvent(ctx context.Context, eventType string, payload any) {
	if s.rdb == nil {
		return
	}
	body := map[string]any{
		"id":      uuid.NewString(),
		"type":    eventType,
		"payload": payload,
	}
	data, err := json.Marshal(body)
	if err != nil {
		s.log.Error("marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.rdb.Publish(ctx, "broadcast", string(data)).Err(); err != nil {
		s.log.Warn("publish event", zap.String("type", eventType), zap.Error(err))
	}
}
