// Package schema validates trigger configuration payloads against the JSON
// schema a trigger type descriptor advertises.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrConfigInvalid = errors.New("trigger config does not satisfy the descriptor schema")

// ValidateConfig checks config against schemaDoc. A descriptor without a
// schema constrains nothing; a nil config is treated as an empty object.
func ValidateConfig(schemaDoc, config map[string]any) error {
	if len(schemaDoc) == 0 {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schemaDoc),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to evaluate trigger config schema: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(details, "; "))
	}

	return nil
}
