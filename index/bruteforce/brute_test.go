package bruteforce

import (
	"testing"

	"github.com/viant/sphere-knn/index"
	"github.com/viant/sphere-knn/index/indextest"
)

func TestIndex(t *testing.T) {
	indextest.Run(t, func() index.Index { return &Index{} })
}
