package project

import (
	"context"

	"github.com/rpggio/tygron-connector/internal/remote"
)

// RemoteDialer adapts a remote.Dialer to Dialer.
func RemoteDialer(d *remote.Dialer) Dialer {
	return remoteDialer{dialer: d}
}

type remoteDialer struct {
	dialer *remote.Dialer
}

func (r remoteDialer) Dial(ctx context.Context, cfg remote.SlotConfig) (EditConnection, error) {
	conn, err := r.dialer.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
