package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bleubryce/AgentX-AI-sub001/internal/gateway"
	"github.com/bleubryce/AgentX-AI-sub001/internal/provider"
	"github.com/bleubryce/AgentX-AI-sub001/internal/queue"
	"github.com/bleubryce/AgentX-AI-sub001/internal/record"
)

// APISource acquires lead records (buyer, seller, refinance) from one
// provider endpoint. Every call goes through the caching gateway, so a
// repeated query within the provider's TTL never spends quota.
type APISource struct {
	name     string
	prov     provider.Config
	endpoint string
	gw       *gateway.Gateway
	fetcher  gateway.Fetcher
}

func NewAPISource(name string, prov provider.Config, endpoint string, gw *gateway.Gateway, fn gateway.Fetcher) *APISource {
	return &APISource{
		name:     name,
		prov:     prov,
		endpoint: endpoint,
		gw:       gw,
		fetcher:  fn,
	}
}

func (s *APISource) Name() string { return s.name }

func (s *APISource) Fetch(ctx context.Context, t queue.Target) (Result, error) {
	payload, err := s.gw.Fetch(ctx, s.prov, s.endpoint, t.Params, s.fetcher)
	if err != nil {
		return Result{}, err
	}

	records, err := decodeRecords(payload)
	if err != nil {
		return Result{}, fmt.Errorf("decode %s payload: %w", s.name, err)
	}

	for _, raw := range records {
		if raw[record.FieldSource] == "" {
			raw[record.FieldSource] = s.name
		}
	}
	return Result{Records: records, Payload: payload}, nil
}

// decodeRecords accepts either {"records": [...]} or a bare array, the two
// shapes provider APIs use in practice.
func decodeRecords(payload []byte) ([]record.Raw, error) {
	var envelope struct {
		Records []map[string]any `json:"records"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Records != nil {
		return coerce(envelope.Records), nil
	}

	var items []map[string]any
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, err
	}
	return coerce(items), nil
}

func coerce(items []map[string]any) []record.Raw {
	out := make([]record.Raw, 0, len(items))
	for _, item := range items {
		raw := make(record.Raw, len(item))
		for field, value := range item {
			switch v := value.(type) {
			case string:
				raw[field] = v
			case float64:
				raw[field] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				raw[field] = strconv.FormatBool(v)
			case nil:
			default:
				// Nested structures are kept as their JSON text.
				if data, err := json.Marshal(v); err == nil {
					raw[field] = string(data)
				}
			}
		}
		out = append(out, raw)
	}
	return out
}
