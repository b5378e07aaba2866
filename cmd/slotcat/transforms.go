package main

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/kbukum/slotpipe/errors"
	"github.com/kbukum/slotpipe/pipeline"
)

type lineTransform = pipeline.Transform[string, string]

var transforms = map[string]lineTransform{
	"upper":   func(_ context.Context, s string) (string, error) { return strings.ToUpper(s), nil },
	"lower":   func(_ context.Context, s string) (string, error) { return strings.ToLower(s), nil },
	"reverse": reverse,
	"revcomp": revcomp,
}

func lookupTransform(name string) (lineTransform, error) {
	fn, ok := transforms[name]
	if !ok {
		names := make([]string, 0, len(transforms))
		for n := range transforms {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, errors.InvalidConfig("transform",
			fmt.Sprintf("unknown transform %q, want one of %s", name, strings.Join(names, ", ")))
	}
	return fn, nil
}

func reverse(_ context.Context, s string) (string, error) {
	r := []rune(s)
	slices.Reverse(r)
	return string(r), nil
}

var complement = [256]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N',
	'a': 't', 'c': 'g', 'g': 'c', 't': 'a', 'n': 'n',
}

// revcomp returns the reverse complement of a DNA sequence. Case is kept
// and N stays N. Any other byte fails the line with a non-retryable error.
func revcomp(_ context.Context, s string) (string, error) {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b := complement[s[i]]
		if b == 0 {
			return "", errors.New(errors.ErrCodeTransformFailed,
				fmt.Sprintf("invalid base %q at offset %d", s[i], i), http.StatusUnprocessableEntity)
		}
		out[len(s)-1-i] = b
	}
	return string(out), nil
}

// perLine lifts a line transform to batches. The batch fails on its first
// bad line.
func perLine(fn lineTransform) pipeline.Transform[[]string, []string] {
	return func(ctx context.Context, batch []string) ([]string, error) {
		out := make([]string, len(batch))
		for i, line := range batch {
			v, err := fn(ctx, line)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
}
