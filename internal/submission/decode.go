package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrMalformed marks every decode or validation failure.
var ErrMalformed = errors.New("invalid JSON payload")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// report JSON names, not Go field names
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

func DecodeBasic(r io.Reader) (Basic, error) {
	var v Basic
	err := decode(r, &v)
	return v, err
}

func DecodeDetailed(r io.Reader) (Detailed, error) {
	var v Detailed
	err := decode(r, &v)
	return v, err
}

// decode reads one JSON object into dst and validates it. Unknown keys are
// ignored so the site can add fields without breaking the relay.
func decode(r io.Reader, dst any) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrMalformed, err)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: trailing data after object", ErrMalformed)
	}

	if err := validatorInstance().Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformed, formatValidation(err))
	}
	return nil
}

func formatValidation(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Tag() == "max" {
			parts = append(parts, fmt.Sprintf("%s is longer than %s characters", fe.Field(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
