package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/delicious-go/delicious/client/internal/types"
)

const pathUpdate = "posts/update"

// LastUpdate returns the time of the account's most recent change.
func LastUpdate(ctx context.Context, d *Dispatcher) (time.Time, error) {
	body, err := d.RequestPath(ctx, pathUpdate, nil)
	if err != nil {
		return time.Time{}, err
	}
	var resp types.UpdateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return time.Time{}, decodeError(pathUpdate, err)
	}
	if resp.UpdateTime == "" {
		return time.Time{}, decodeError(pathUpdate, fmt.Errorf("missing update_time"))
	}
	t, err := types.ParseDate(resp.UpdateTime)
	if err != nil {
		return time.Time{}, decodeError(pathUpdate, err)
	}
	return t, nil
}
