package filters

import (
	"fmt"
	"regexp"
	"time"

	"go.uber.org/multierr"

	"github.com/chicogong/ffgraph/pkg/schemas"
)

// ParameterValidator validates filter options
type ParameterValidator struct {
	converter *TypeConverter
}

// NewParameterValidator creates a new parameter validator
func NewParameterValidator() *ParameterValidator {
	return &ParameterValidator{
		converter: NewTypeConverter(),
	}
}

// ValidateParameter validates a single option
func (pv *ParameterValidator) ValidateParameter(
	name string,
	value interface{},
	descriptor *ParameterDescriptor,
) error {
	converted, err := pv.converter.Convert(value, descriptor.Type)
	if err != nil {
		return &ValidationError{
			Parameter: name,
			Message:   fmt.Sprintf("type conversion failed: %v", err),
		}
	}

	if descriptor.Validation != nil {
		if err := pv.applyRules(converted, descriptor.Validation); err != nil {
			return &ValidationError{
				Parameter: name,
				Message:   err.Error(),
			}
		}
	}

	return nil
}

// applyRules applies validation rules to a converted value
func (pv *ParameterValidator) applyRules(value interface{}, rules *ValidationRules) error {
	if rules.Min != nil || rules.Max != nil {
		numValue, err := toFloat64(value)
		if err != nil {
			return err
		}

		if rules.Min != nil && numValue < *rules.Min {
			return fmt.Errorf("value %v is less than minimum %v", numValue, *rules.Min)
		}

		if rules.Max != nil && numValue > *rules.Max {
			return fmt.Errorf("value %v is greater than maximum %v", numValue, *rules.Max)
		}
	}

	if s, ok := value.(string); ok {
		if rules.MinLength != nil && len(s) < *rules.MinLength {
			return fmt.Errorf("value %q is shorter than %d", s, *rules.MinLength)
		}
		if rules.MaxLength != nil && len(s) > *rules.MaxLength {
			return fmt.Errorf("value %q is longer than %d", s, *rules.MaxLength)
		}
		if rules.Pattern != nil {
			re, err := regexp.Compile(*rules.Pattern)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", *rules.Pattern, err)
			}
			if !re.MatchString(s) {
				return fmt.Errorf("value %q does not match %s", s, *rules.Pattern)
			}
		}
	}

	// Enum values compare by their rendered form so 2 and "2" match
	if rules.Enum != nil {
		rendered := schemas.FormatValue(value)
		found := false
		for _, enumValue := range rules.Enum {
			if schemas.FormatValue(enumValue) == rendered {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("value %v is not in allowed values %v", value, rules.Enum)
		}
	}

	if rules.CustomValidator != nil {
		if err := rules.CustomValidator(value); err != nil {
			return err
		}
	}

	return nil
}

// ValidationError represents an option validation error
type ValidationError struct {
	Filter    string
	Parameter string
	Message   string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Filter != "" {
		return fmt.Sprintf("filter '%s': parameter '%s': %s", e.Filter, e.Parameter, e.Message)
	}
	return fmt.Sprintf("parameter '%s': %s", e.Parameter, e.Message)
}

// toFloat64 converts a converted value to float64
func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case time.Duration:
		return v.Seconds(), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

// ValidateOptions checks opts against the descriptor's option schema.
//
// Options the descriptor does not declare are accepted, since catalogue
// entries commonly describe a subset of a filter's options. All violations
// are reported together.
func ValidateOptions(d *Descriptor, opts schemas.Params) error {
	validator := NewParameterValidator()

	var errs error
	for i := range d.Parameters {
		paramDesc := &d.Parameters[i]
		value, ok := opts.Get(paramDesc.Name)
		if !ok {
			if paramDesc.Required {
				errs = multierr.Append(errs, &ValidationError{
					Filter:    d.Name,
					Parameter: paramDesc.Name,
					Message:   "required parameter is missing",
				})
			}
			continue
		}

		if err := validator.ValidateParameter(paramDesc.Name, value, paramDesc); err != nil {
			if ve, ok := err.(*ValidationError); ok {
				ve.Filter = d.Name
			}
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
