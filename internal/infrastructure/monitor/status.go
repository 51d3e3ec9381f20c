package monitor

import "time"

type Status struct {
	Identity  bool      `json:"identity"`
	Mail      bool      `json:"mail"`
	LastCheck time.Time `json:"last_check"`
}

// Healthy reports whether every dependency answered the last probe.
func (s Status) Healthy() bool {
	return s.Identity && s.Mail
}
