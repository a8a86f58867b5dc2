package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Appointment lifecycle channels
const (
	ChannelAppointments = "appointments"
)

// Event types published on the appointments channel
const (
	EventAppointmentBooked            = "appointment_booked"
	EventAppointmentCancelled         = "appointment_cancelled"
	EventAppointmentCancelledByDoctor = "appointment_cancelled_by_doctor"
	EventAppointmentExpired           = "appointment_expired"
	EventAvailabilityCancelled        = "availability_cancelled"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NopBroker discards everything. Used in tests and when Redis is disabled.
type NopBroker struct{}

func (NopBroker) Publish(context.Context, string, interface{}) error { return nil }
func (NopBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}
func (NopBroker) Close() error { return nil }
