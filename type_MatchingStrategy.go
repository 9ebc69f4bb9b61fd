package holdings

import (
	"encoding/json"
	"fmt"
)

// MatchingStrategy defines which open lots a take-security leg consumes.
type MatchingStrategy int

const (
	// Unspecified is the zero value, it is rejected wherever lots need to be matched.
	Unspecified MatchingStrategy = iota
	// FIFO (First-In, First-Out) consumes the oldest lots first.
	FIFO
	// LIFO (Last-In, First-Out) consumes the newest lots first.
	LIFO
	// Specific consumes the lots explicitly selected by their entry date.
	Specific
)

func (m MatchingStrategy) String() string {
	switch m {
	case Unspecified:
		return ""
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	case Specific:
		return "specific"
	default:
		return "unknown"
	}
}

// ParseMatchingStrategy parses a string into a MatchingStrategy.
func ParseMatchingStrategy(s string) (MatchingStrategy, error) {
	switch s {
	case "":
		return Unspecified, nil
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	case "specific":
		return Specific, nil
	default:
		return 0, fmt.Errorf("unknown matching strategy: %q", s)
	}
}

func (m MatchingStrategy) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

func (m *MatchingStrategy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseMatchingStrategy(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
