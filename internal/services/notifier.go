package services

// Notifier pushes domain events to interested live subscribers. The realtime
// hub implements it; NopNotifier stands in when no hub is wired (tests).
type Notifier interface {
	Publish(room, event string, payload interface{})
}

type NopNotifier struct{}

func (NopNotifier) Publish(string, string, interface{}) {}
