package utils

import (
	"encoding/json"

	"go.uber.org/zap"
)

// UnmarshalAndHandle decodifica el payload al tipo esperado y ejecuta el
// handler. Un payload malformado se registra y devuelve false para que el
// consumidor lo trate como mensaje venenoso (sin requeue).
func UnmarshalAndHandle[T any](log *zap.Logger, data json.RawMessage, handler func(T) error) (bool, error) {
	var evt T
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Error("Failed to unmarshal event payload", zap.Error(err))
		return false, nil
	}
	return true, handler(evt)
}
