package contractclient

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
)

// decodedEvent is the {EventName, Parameter} shape MintNftTokenId-style
// receipt parsing expects.
type decodedEvent struct {
	EventName string                 `json:"EventName"`
	Parameter map[string]interface{} `json:"Parameter"`
}

// decodeLogsJSON decodes every log whose topic0 matches a known event in
// contractABI, skipping logs from other contracts/events it can't name.
func decodeLogsJSON(contractABI *abi.ABI, logs []*types.Log) (string, error) {
	events := make([]decodedEvent, 0, len(logs))
	for _, lg := range logs {
		if lg == nil || len(lg.Topics) == 0 {
			continue
		}
		ev, err := contractABI.EventByID(lg.Topics[0])
		if err != nil {
			continue
		}
		params := make(map[string]interface{})
		if len(lg.Data) > 0 {
			if err := contractABI.UnpackIntoMap(params, ev.Name, lg.Data); err != nil {
				continue
			}
		}
		for i, arg := range ev.Inputs {
			if arg.Indexed && i+1 < len(lg.Topics) {
				params[arg.Name] = lg.Topics[i+1].Hex()
			}
		}
		events = append(events, decodedEvent{EventName: ev.Name, Parameter: params})
	}
	out, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("marshal decoded events: %w", err)
	}
	return string(out), nil
}
