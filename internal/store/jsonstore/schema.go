package jsonstore

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Loaded files are validated before decoding so a hand-edited or corrupt
// state file fails loudly instead of silently producing zeroed signals.
const signalsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "symbol", "strategy", "direction", "status", "entry_price", "tp_price", "sl_price", "position_pct"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "symbol": {"type": "string", "minLength": 1},
      "strategy": {"type": "string", "minLength": 1},
      "direction": {"type": "string", "enum": ["LONG", "SHORT"]},
      "status": {"type": "string", "enum": ["ACTIVE", "CLOSED_TP", "CLOSED_SL"]},
      "confidence": {"type": "number", "minimum": 0, "maximum": 1},
      "entry_price": {"type": "number", "exclusiveMinimum": 0},
      "tp_price": {"type": "number", "exclusiveMinimum": 0},
      "sl_price": {"type": "number", "exclusiveMinimum": 0},
      "position_pct": {"type": "number", "exclusiveMinimum": 0, "maximum": 1},
      "exit_reason": {"type": "string", "enum": ["take_profit", "stop_loss"]}
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("signals.schema.json", signalsSchema)

func validateSignalsDoc(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("state file schema violation: %w", err)
	}
	return nil
}
