package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Text is an optional form value. It decodes from a JSON string, null
// (empty), a number or a bool (kept literally). Objects and arrays are errors.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty value")
	}
	switch b[0] {
	case 'n':
		if !bytes.Equal(b, []byte("null")) {
			return fmt.Errorf("invalid literal %q", b)
		}
		*t = ""
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{':
		return fmt.Errorf("expected text, got object")
	case '[':
		return fmt.Errorf("expected text, got array")
	default:
		// numbers and true/false; the decoder has already checked the syntax
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Present reports whether the value carries anything besides whitespace.
func (t Text) Present() bool { return strings.TrimSpace(string(t)) != "" }

// Or returns the trimmed value, or placeholder when the value is absent.
func (t Text) Or(placeholder string) string {
	if s := strings.TrimSpace(string(t)); s != "" {
		return s
	}
	return placeholder
}

// Basic is the short contact form posted to /webhook/order.
type Basic struct {
	Name      Text `json:"name" validate:"max=256"`
	Email     Text `json:"email" validate:"max=320"`
	Phone     Text `json:"phone" validate:"max=64"`
	Telegram  Text `json:"telegram" validate:"max=128"`
	Message   Text `json:"message" validate:"max=8000"`
	CreatedAt Text `json:"createdAt" validate:"max=64"`
}

// Detailed is the project application posted to /webhook/application.
type Detailed struct {
	FullName       Text `json:"fullName" validate:"max=256"`
	Email          Text `json:"email" validate:"max=320"`
	Phone          Text `json:"phone" validate:"max=64"`
	Telegram       Text `json:"telegram" validate:"max=128"`
	ProjectType    Text `json:"projectType" validate:"max=256"`
	ProjectProblem Text `json:"projectProblem" validate:"max=8000"`
	TargetAudience Text `json:"targetAudience" validate:"max=2000"`
	Budget         Text `json:"budget" validate:"max=256"`
	Deadline       Text `json:"deadline" validate:"max=256"`
	Description    Text `json:"description" validate:"max=8000"`
	AdditionalInfo Text `json:"additionalInfo" validate:"max=8000"`
	CreatedAt      Text `json:"createdAt" validate:"max=64"`
}
