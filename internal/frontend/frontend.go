// Package frontend holds the bits of pipeline wiring shared by both
// front ends (cmd/helix's REPL and cmd/helixd's HTTP gateway): parsing
// "NAME:DIM:METRIC" vector registrations off the command line and
// decoding a JSON params object into the executor's parameter table.
package frontend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ritamzico/helixdb/internal/result"
	"github.com/ritamzico/helixdb/internal/value"
	"github.com/ritamzico/helixdb/internal/vectorstore"
	"github.com/ritamzico/helixdb/internal/vectorstore/flat"
)

// RegisterVectorTypes parses specs of the form "Name:Dim:Metric" (metric
// one of "cosine"/"euclidean", defaulting to cosine) and registers each
// against vec. Vector metric and dimensionality are attached at backend
// registration rather than expressed in the DSL (spec §9(a)).
func RegisterVectorTypes(vec *flat.Store, specs []string) error {
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 {
			return fmt.Errorf("malformed --vector spec %q, want Name:Dim[:Metric]", spec)
		}
		name := parts[0]
		dim, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Errorf("--vector %q: bad dimension: %w", spec, err)
		}
		metric := vectorstore.Cosine
		if len(parts) > 2 && strings.EqualFold(parts[2], "euclidean") {
			metric = vectorstore.Euclidean
		}
		if err := vec.Register(name, dim, metric); err != nil {
			return fmt.Errorf("registering vector type %q: %w", name, err)
		}
	}
	return nil
}

// ParseParams decodes a JSON object of query-invocation parameters into
// the executor's map[string]value.Value parameter table. An empty or
// blank raw string yields an empty parameter table.
func ParseParams(raw string) (map[string]value.Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]value.Value{}, nil
	}
	var asMap map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &asMap); err != nil {
		return nil, fmt.Errorf("params must be a JSON object: %w", err)
	}
	out := make(map[string]value.Value, len(asMap))
	for k, raw := range asMap {
		var rv result.Value
		if err := rv.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("param %s: %w", k, err)
		}
		out[k] = rv.Runtime()
	}
	return out, nil
}
