package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestRefresh(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("down") })

	tests := []struct {
		name     string
		identity Pinger
		mail     Pinger
		want     Status
	}{
		{name: "all up", identity: ok, mail: ok, want: Status{Identity: true, Mail: true}},
		{name: "identity down", identity: down, mail: ok, want: Status{Mail: true}},
		{name: "mail missing", identity: ok, want: Status{Identity: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := New(tc.identity, tc.mail, time.Minute, nil)
			m.Refresh()

			got := m.GetStatus()
			assert.Equal(t, tc.want.Identity, got.Identity)
			assert.Equal(t, tc.want.Mail, got.Mail)
			assert.Equal(t, tc.want.Identity && tc.want.Mail, got.Healthy())
			assert.False(t, got.LastCheck.IsZero())
		})
	}
}

func TestStartStop(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	m := New(ok, ok, time.Minute, nil)
	m.Start()
	assert.True(t, m.GetStatus().Healthy())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Stop(ctx)
}
