package domain

import (
	"fmt"
	"strings"
)

// Kind is the variant tag of a Resource.
type Kind string

const (
	KindPlain    Kind = "plain"
	KindList     Kind = "list"
	KindYesNo    Kind = "yes_no"
	KindNumber   Kind = "number"
	KindDate     Kind = "date"
	KindTime     Kind = "time"
	KindDatetime Kind = "datetime"
	// KindOr is a mutually exclusive group: choosing one member skips the rest.
	KindOr Kind = "or"
	// KindWrapper aggregates its children into one jointly resolved unit.
	KindWrapper Kind = "wrapper"
	// KindFinal marks the unique root representing success or cancellation.
	KindFinal Kind = "final"
)

// kindAliases accepts the class-style names used by older dialogue files.
var kindAliases = map[string]Kind{
	"resource":         KindPlain,
	"listresource":     KindList,
	"yesnoresource":    KindYesNo,
	"numberresource":   KindNumber,
	"dateresource":     KindDate,
	"timeresource":     KindTime,
	"datetimeresource": KindDatetime,
	"orresource":       KindOr,
	"wrapperresource":  KindWrapper,
	"finalresource":    KindFinal,
}

var knownKinds = map[Kind]struct{}{
	KindPlain: {}, KindList: {}, KindYesNo: {}, KindNumber: {}, KindDate: {},
	KindTime: {}, KindDatetime: {}, KindOr: {}, KindWrapper: {}, KindFinal: {},
}

// ParseKind normalizes a declared kind. An empty string yields KindPlain.
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return KindPlain, nil
	}
	if _, ok := knownKinds[Kind(key)]; ok {
		return Kind(key), nil
	}
	if k, ok := kindAliases[key]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// IsWrapper reports whether resources of this kind fold their children.
func (k Kind) IsWrapper() bool { return k == KindWrapper }
