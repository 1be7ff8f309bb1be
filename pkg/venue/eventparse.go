package venue

import (
	"encoding/json"
	"math/big"
)

// decodedEvent mirrors contractclient.ParseReceipt's {EventName, Parameter}
// JSON shape, the same one blackhole.go's MintNftTokenId walks.
type decodedEvent struct {
	EventName string                 `json:"EventName"`
	Parameter map[string]interface{} `json:"Parameter"`
}

func decodeEvents(eventsJSON string) ([]decodedEvent, error) {
	var events []decodedEvent
	if err := json.Unmarshal([]byte(eventsJSON), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// parseEventAmount normalizes one decoded event parameter into a big.Int,
// mirroring blackhole.go's MintNftTokenId switch: decodeLogsJSON's
// json.Marshal/json.Unmarshal round-trip turns a *big.Int parameter into a
// float64, while an indexed parameter stays the hex/decimal string
// decodeLogsJSON stored it as. Missing or unparseable values default to
// zero rather than failing the withdrawal outright.
func parseEventAmount(v interface{}) *big.Int {
	switch val := v.(type) {
	case *big.Int:
		return val
	case float64:
		out, _ := big.NewFloat(val).Int(nil)
		return out
	case string:
		if len(val) > 2 && (val[:2] == "0x" || val[:2] == "0X") {
			if parsed, ok := new(big.Int).SetString(val[2:], 16); ok {
				return parsed
			}
		}
		if parsed, ok := new(big.Int).SetString(val, 10); ok {
			return parsed
		}
	}
	return big.NewInt(0)
}
