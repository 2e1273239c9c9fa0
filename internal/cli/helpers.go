package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	JobKind    = "job"
	ResultKind = "result"
	LogKind    = "log"
	StatsKind  = "stats"
)

var (
	pluralKinds = map[string]string{
		JobKind:    "jobs",
		ResultKind: "results",
		LogKind:    "logs",
		StatsKind:  "stats",
	}
)

func parseAndValidateKindId(arg string) (string, string, error) {
	kind, id, _ := strings.Cut(arg, "/")
	kind = singular(kind)
	if _, ok := pluralKinds[kind]; !ok {
		return "", "", fmt.Errorf("invalid resource kind: %s", kind)
	}
	return kind, id, nil
}

func parseId(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid resource id %q: %w", id, err)
	}
	return parsed, nil
}

func singular(kind string) string {
	for singular, plural := range pluralKinds {
		if kind == plural {
			return singular
		}
	}
	return kind
}

func plural(kind string) string {
	return pluralKinds[kind]
}
