package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

type (
	Entity string
	Action string
)

const (
	EntityTransaction Entity = "transaction"
	EntityBudget      Entity = "budget"

	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeEvent announces a committed write. It carries only the record ID
// and the budget periods the write touched; consumers reload what they need.
type ChangeEvent struct {
	Entity    Entity           `json:"entity"`
	Action    Action           `json:"action"`
	ID        string           `json:"id"`
	Periods   []core.YearMonth `json:"periods"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewChangeEvent stamps an event with the current time. Duplicate periods
// are dropped.
func NewChangeEvent(entity Entity, action Action, id string, periods ...core.YearMonth) *ChangeEvent {
	return &ChangeEvent{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Periods:   dedupePeriods(periods),
		Timestamp: time.Now(),
	}
}

func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var evt ChangeEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

func dedupePeriods(in []core.YearMonth) []core.YearMonth {
	out := make([]core.YearMonth, 0, len(in))
	seen := make(map[core.YearMonth]struct{}, len(in))
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
