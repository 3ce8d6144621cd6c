package probe

import (
	"context"
	"encoding/json"

	service "github.com/okian/momentproxy/internal/app"
)

// Pipeline runs one policy in-process.
type Pipeline interface {
	Moments(ctx context.Context, policy string) (service.Result, error)
}

// SampleJSON runs policy through p and encodes the result the way the HTTP
// endpoint does.
func SampleJSON(ctx context.Context, p Pipeline, policy string, pretty bool) ([]byte, error) {
	res, err := p.Moments(ctx, policy)
	if err != nil {
		return nil, err
	}
	body := MomentsResponse{Moments: res.Listings}
	if res.IncludeTotal {
		total := res.Total
		body.Total = &total
	}
	if pretty {
		return json.MarshalIndent(body, "", "  ")
	}
	return json.Marshal(body)
}
