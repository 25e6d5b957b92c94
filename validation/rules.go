package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"unicode/utf8"

	"github.com/Amund211/conduction/internal/strutils"
)

// Required fails when the source has no entry for the key.
func Required() Rule {
	return func(_ any, present bool) error {
		if !present {
			return errors.New("required value is missing")
		}
		return nil
	}
}

// NonEmptyString requires a present value to be a string with at least one
// character.
func NonEmptyString() Rule {
	return func(value any, present bool) error {
		if !present {
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", value)
		}
		if s == "" {
			return errors.New("must not be empty")
		}
		return nil
	}
}

// MinLength requires a present string value to have at least n characters.
func MinLength(n int) Rule {
	return func(value any, present bool) error {
		if !present {
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", value)
		}
		if utf8.RuneCountInString(s) < n {
			return fmt.Errorf("must be at least %d characters", n)
		}
		return nil
	}
}

// MaxLength requires a present string value to have at most n characters.
func MaxLength(n int) Rule {
	return func(value any, present bool) error {
		if !present {
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", value)
		}
		if utf8.RuneCountInString(s) > n {
			return fmt.Errorf("must be at most %d characters", n)
		}
		return nil
	}
}

// IntBetween requires a present value to be an integer in [lo, hi]. Float
// values are accepted when they are integral, since generic decoding often
// produces float64 for numbers.
func IntBetween(lo, hi int) Rule {
	return func(value any, present bool) error {
		if !present {
			return nil
		}
		n, ok := asInt(value)
		if !ok {
			return fmt.Errorf("expected an integer, got %T", value)
		}
		if n < lo || n > hi {
			return fmt.Errorf("must be between %d and %d, got %d", lo, hi, n)
		}
		return nil
	}
}

func asInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// Matches requires a present string value to match re.
func Matches(re *regexp.Regexp) Rule {
	return func(value any, present bool) error {
		if !present {
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", value)
		}
		if !re.MatchString(s) {
			return fmt.Errorf("must match %s", re.String())
		}
		return nil
	}
}

// NormalizedUUID requires a present string value to normalize to a
// canonical uuid. Dashed and upper-case forms are accepted.
func NormalizedUUID() Rule {
	return func(value any, present bool) error {
		if !present {
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", value)
		}
		if _, err := strutils.NormalizeUUID(s); err != nil {
			return fmt.Errorf("must be a valid uuid: %w", err)
		}
		return nil
	}
}

// Custom wraps an arbitrary check; failures are prefixed with name so the
// aggregated error identifies the rule.
func Custom(name string, fn func(value any, present bool) error) Rule {
	return func(value any, present bool) error {
		err := fn(value, present)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}
