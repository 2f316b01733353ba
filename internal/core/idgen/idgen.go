// Package idgen issues string identifiers for new rows when the caller does not
// supply one.
package idgen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	PrefixLocation   = "L"
	PrefixEmployee   = "E"
	PrefixAssignment = "A"
)

// ExistingFunc lists identifiers already stored for an entity.
type ExistingFunc func() ([]string, error)

type Generator interface {
	Next(prefix string, existing ExistingFunc) (string, error)
}

// New returns the generator for a configured strategy; anything other than
// "random" yields the sequential generator.
func New(strategy string) Generator {
	if strategy == "random" {
		return Random{}
	}
	return Sequential{}
}

// Sequential scans existing identifiers carrying the prefix, takes the largest
// numeric suffix and returns prefix+(max+1) padded to three digits.
type Sequential struct{}

func (Sequential) Next(prefix string, existing ExistingFunc) (string, error) {
	var ids []string
	if existing != nil {
		var err error
		ids, err = existing()
		if err != nil {
			return "", fmt.Errorf("list existing identifiers: %w", err)
		}
	}
	return NextSequential(prefix, ids), nil
}

func NextSequential(prefix string, existing []string) string {
	max := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(id[len(prefix):])
		// A suffix at MaxInt has no successor.
		if err != nil || n < 0 || n == math.MaxInt {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, max+1)
}

// Random returns prefix + a v4 uuid and never looks at existing rows.
type Random struct{}

func (Random) Next(prefix string, _ ExistingFunc) (string, error) {
	return prefix + uuid.NewString(), nil
}
