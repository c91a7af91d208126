package sequence

import (
	"context"
	"fmt"
	"time"
)

const counterTag = "orderId-"

// CodeGenerator produces external order codes of the form
// <PREFIX>-<YYMMDD>-<NNN>, where NNN is a date-scoped sequence number.
// The counter name changes with the UTC date, so the numbering restarts
// naturally at midnight with no reset logic.
type CodeGenerator struct {
	prefix string
	alloc  Allocator
}

func NewCodeGenerator(prefix string, alloc Allocator) *CodeGenerator {
	return &CodeGenerator{prefix: prefix, alloc: alloc}
}

// Generate returns the order code for an order created at the given instant.
// Padding is three digits minimum and grows unbounded past 999.
func (g *CodeGenerator) Generate(ctx context.Context, at time.Time) (string, error) {
	stamp := at.UTC().Format("060102")

	seq, err := g.alloc.Next(ctx, counterTag+stamp)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%03d", g.prefix, stamp, seq), nil
}
