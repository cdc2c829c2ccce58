package scanner

import (
	"fmt"
	"strconv"
	"strings"
)

// Params carries runtime parameter overrides as a flat key→value map,
// typically parsed from repeated -param key=value CLI flags. Each scanner
// declares which keys it accepts and their types through a Binder;
// anything else is rejected so a typo can never silently change behavior.
type Params map[string]string

// ParsePairs converts "key=value" pairs into Params.
func ParsePairs(pairs []string) (Params, error) {
	p := make(Params, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("scanner.ParsePairs: malformed param %q, want key=value", pair)
		}
		p[key] = value
	}
	return p, nil
}

// Binder applies Params to typed destinations. Bind every declared key,
// then call Finish: it reports the first coercion error and rejects keys
// no binding consumed.
type Binder struct {
	params Params
	used   map[string]bool
	err    error
}

// NewBinder starts a binding pass over params.
func NewBinder(params Params) *Binder {
	return &Binder{params: params, used: make(map[string]bool, len(params))}
}

// Int binds an integer-typed key.
func (b *Binder) Int(key string, dst *int) {
	raw, ok := b.take(key)
	if !ok {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		b.fail(fmt.Errorf("param %q: want integer, got %q", key, raw))
		return
	}
	*dst = v
}

// Float binds a float-typed key.
func (b *Binder) Float(key string, dst *float64) {
	raw, ok := b.take(key)
	if !ok {
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		b.fail(fmt.Errorf("param %q: want number, got %q", key, raw))
		return
	}
	*dst = v
}

// Finish returns the first error recorded during binding, or an error
// naming any key that no binding consumed.
func (b *Binder) Finish() error {
	if b.err != nil {
		return b.err
	}
	for key := range b.params {
		if !b.used[key] {
			return fmt.Errorf("unknown param %q", key)
		}
	}
	return nil
}

func (b *Binder) take(key string) (string, bool) {
	raw, ok := b.params[key]
	if ok {
		b.used[key] = true
	}
	return raw, ok
}

func (b *Binder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
