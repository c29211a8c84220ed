package scope

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-scope/internal/hydrate"
)

// SaveJSON serialises node as well as everything it references into a JSON
// string. It is a thin forwarding surface over encoding/json and carries no
// graph semantics of its own.
func SaveJSON(node any) (string, error) {
	payload, err := json.Marshal(node)
	if err != nil {
		return "", fmt.Errorf("scope: save json: %w", err)
	}
	return string(payload), nil
}

// LoadOption configures a LoadJSON call.
type LoadOption[T any] func(*loadConfig[T])

type loadConfig[T any] struct {
	label       string
	decoderOpts []hydrate.DecoderOption[T]
}

// LoadWithLabel names the graph in decode error messages.
func LoadWithLabel[T any](label string) LoadOption[T] {
	return func(cfg *loadConfig[T]) {
		cfg.label = label
	}
}

// LoadWithUseNumber keeps JSON numbers as json.Number instead of float64.
func LoadWithUseNumber[T any]() LoadOption[T] {
	return func(cfg *loadConfig[T]) {
		cfg.decoderOpts = append(cfg.decoderOpts, hydrate.WithUseNumber[T]())
	}
}

// LoadWithDisallowUnknownFields rejects payload fields T does not declare.
func LoadWithDisallowUnknownFields[T any]() LoadOption[T] {
	return func(cfg *loadConfig[T]) {
		cfg.decoderOpts = append(cfg.decoderOpts, hydrate.WithDisallowUnknownFields[T]())
	}
}

// LoadWithPreHook mutates or normalises the raw payload before decoding.
func LoadWithPreHook[T any](hook func(map[string]any) (map[string]any, error)) LoadOption[T] {
	return func(cfg *loadConfig[T]) {
		if hook == nil {
			return
		}
		cfg.decoderOpts = append(cfg.decoderOpts, hydrate.WithPreHook[T](
			func(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
				return hook(payload)
			}))
	}
}

// LoadWithPostHook adjusts or validates the hydrated value after decoding.
func LoadWithPostHook[T any](hook func(*T) error) LoadOption[T] {
	return func(cfg *loadConfig[T]) {
		if hook == nil {
			return
		}
		cfg.decoderOpts = append(cfg.decoderOpts, hydrate.WithPostHook[T](
			func(_ hydrate.Context, value *T) error {
				return hook(value)
			}))
	}
}

// LoadJSON deserialises a JSON string previously produced by SaveJSON back
// into a value of type T. Object payloads route through the hydrate decoder so
// pre/post hooks apply; non-object payloads (arrays, scalars) decode directly.
func LoadJSON[T any](payload string, opts ...LoadOption[T]) (T, error) {
	cfg := loadConfig[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.label == "" {
		cfg.label = "graph"
	}

	var zero T
	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil || raw == nil {
		var direct T
		if directErr := json.Unmarshal([]byte(payload), &direct); directErr != nil {
			return zero, fmt.Errorf("scope: load json %q: %w", cfg.label, directErr)
		}
		return direct, nil
	}

	decoder := hydrate.NewDecoder[T](cfg.decoderOpts...)
	result, err := decoder.Decode(hydrate.Context{Label: cfg.label}, raw)
	if err != nil {
		return zero, fmt.Errorf("scope: load json: %w", err)
	}
	return result, nil
}
