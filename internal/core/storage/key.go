package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aevon-lab/raster/internal/core/coerce"
)

// GroupKey is the ordered list of group values computed from one row, one
// per GROUP entry in declaration order. Keys compare structurally: each
// value is normalized into a comparable token, so 1, 1.0 and "1" as a
// decimal are the same numeric token while "1" as a string is not.
type GroupKey struct {
	values []any
	id     string
}

// NewGroupKey builds a key from values.
func NewGroupKey(values ...any) GroupKey {
	tokens := make([]string, len(values))
	for i, v := range values {
		tokens[i] = strconv.Quote(token(v))
	}
	return GroupKey{
		values: append([]any(nil), values...),
		id:     strings.Join(tokens, ","),
	}
}

// Values returns a copy of the key's values.
func (k GroupKey) Values() []any {
	return append([]any(nil), k.values...)
}

// Len is the number of key components.
func (k GroupKey) Len() int { return len(k.values) }

// Empty reports whether k is the ungrouped key.
func (k GroupKey) Empty() bool { return len(k.values) == 0 }

// ID is the canonical encoding of the key's tokens.
func (k GroupKey) ID() string { return k.id }

// Equal reports positional equality of the normalized tokens.
func (k GroupKey) Equal(other GroupKey) bool { return k.id == other.id }

func (k GroupKey) String() string {
	parts := make([]string, len(k.values))
	for i, v := range k.values {
		if v == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "|")
}

func token(v any) string {
	switch val := v.(type) {
	case nil:
		return "n"
	case string:
		return "s" + val
	case bool:
		return "b" + strconv.FormatBool(val)
	case time.Time:
		return "t" + val.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		if d, ok := coerce.Decimal(v); ok {
			return "d" + d.String()
		}
		return "x" + val.String()
	}
	if d, ok := coerce.Decimal(v); ok {
		return "d" + d.String()
	}
	return fmt.Sprintf("v%T:%v", v, v)
}
