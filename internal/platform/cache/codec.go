package cache

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Values are CBOR-encoded with Core Deterministic Encoding so identical
// listings produce identical bytes. Timestamps are RFC 3339 strings with
// nanoseconds to round-trip exactly.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("cache: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("cache: CBOR decoder initialization failed: " + err.Error())
	}
}

func encode(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return data, nil
}

func decode(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode cache value: %w", err)
	}
	return nil
}
