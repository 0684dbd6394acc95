package entities

import "time"

type Status string

const (
	StatusAtivo      Status = "Ativo"
	StatusEmExecucao Status = "EmExecucao"
	StatusConcluido  Status = "Concluido"
)

// Label is the text shown to the user for a status.
func (s Status) Label() string {
	if s == StatusEmExecucao {
		return "Em execução"
	}
	return string(s)
}

// Variant is the badge style used by the dashboard.
func (s Status) Variant() string {
	switch s {
	case StatusConcluido:
		return "default"
	case StatusEmExecucao:
		return "secondary"
	default:
		return "outline"
	}
}

// IrrigationEvent is the record owned by the remote service, as pushed by the feed.
type IrrigationEvent struct {
	ID           string `json:"id"`
	PlantName    string `json:"plantName"`
	SpecificDate string `json:"specificDate"` // YYYY-MM-DD
	Time         string `json:"time"`         // HH:MM
}

// Payload is the body sent on create and update.
func (e IrrigationEvent) Payload() IrrigationPayload {
	return IrrigationPayload{PlantName: e.PlantName, SpecificDate: e.SpecificDate, Time: e.Time}
}

type IrrigationPayload struct {
	PlantName    string `json:"plantName"`
	SpecificDate string `json:"specificDate"`
	Time         string `json:"time"`
}

// IrrigationItem is an event plus the fields derived for display. None of
// the derived fields are ever persisted.
type IrrigationItem struct {
	IrrigationEvent
	StartAt     time.Time `json:"startAt"`
	DisplayDate string    `json:"displayDate"`
	DayOfWeek   string    `json:"dayOfWeek"`
	Status      Status    `json:"status"`
}
