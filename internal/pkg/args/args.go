// Package args decodes the free-form argument maps carried by workflow
// specs into typed structs.
package args

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode fills out from the given argument map. Decoding is weakly typed so
// YAML/TOML scalars land in the field types the implementation declares.
func Decode(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("decoding args: %w", err)
	}
	return nil
}
