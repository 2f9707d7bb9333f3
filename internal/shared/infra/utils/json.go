package utils

import (
	"encoding/json"

	"go.uber.org/zap"
)

// UnmarshalAndHandle decodifica un mensaje del bus como T y se lo pasa a
// handler. Un mensaje ilegible se registra y se descarta: devuelve false.
func UnmarshalAndHandle[T any](log *zap.Logger, data json.RawMessage, handler func(T)) bool {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn("Discarding undecodable message",
			zap.Int("bytes", len(data)),
			zap.Error(err))
		return false
	}
	handler(msg)
	return true
}
