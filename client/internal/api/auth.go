package api

import (
	"context"
	"fmt"
	"time"

	clienterrors "github.com/delicious-go/delicious/client/internal/errors"
)

// Authenticate checks username/password with a posts/update call and stores
// them on success. Stored credentials are left untouched on failure. A
// positive timeout bounds the check; when it fires the LoginTimeout hook runs.
func Authenticate(ctx context.Context, d *Dispatcher, username, password string, timeout time.Duration) (string, error) {
	creds := Credentials{Username: username, Password: password}
	if creds.empty() {
		return "", clienterrors.New(clienterrors.KindInvalidCredentials, fmt.Errorf("authenticate: username and password are required"))
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if _, err := d.request(ctx, creds, pathUpdate, nil); err != nil {
		if clienterrors.KindOf(err) == clienterrors.KindTimeout && d.hooks.LoginTimeout != nil {
			d.hooks.LoginTimeout()
		}
		return "", err
	}
	d.SetCredentials(creds)
	return username, nil
}
