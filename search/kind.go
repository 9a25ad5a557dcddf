package search

import (
	"fmt"
	"strings"

	"github.com/viant/sphere-knn/index"
	"github.com/viant/sphere-knn/index/bruteforce"
	"github.com/viant/sphere-knn/index/cover"
	"github.com/viant/sphere-knn/index/vptree"
)

// Kind names an index implementation.
type Kind string

const (
	KindAuto   Kind = "auto"
	KindBrute  Kind = "brute"
	KindVPTree Kind = "vptree"
	KindCover  Kind = "cover"
)

const (
	autoTreeMinPoints  = 64
	autoCoverMinPoints = 4000
)

// ParseKind maps a user supplied name to a Kind; empty means auto.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return KindAuto, nil
	case "brute", "bruteforce":
		return KindBrute, nil
	case "vptree", "vp":
		return KindVPTree, nil
	case "cover":
		return KindCover, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Resolve picks a concrete kind for n points.
func (k Kind) Resolve(n int) Kind {
	if k != KindAuto && k != "" {
		return k
	}
	switch {
	case n >= autoCoverMinPoints:
		return KindCover
	case n >= autoTreeMinPoints:
		return KindVPTree
	}
	return KindBrute
}

// NewIndex returns an empty index of the resolved kind for n points.
func NewIndex(kind Kind, n int, coverOpts ...cover.Option) (index.Index, error) {
	switch kind.Resolve(n) {
	case KindBrute:
		return &bruteforce.Index{}, nil
	case KindVPTree:
		return &vptree.Index{}, nil
	case KindCover:
		return cover.New(coverOpts...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
