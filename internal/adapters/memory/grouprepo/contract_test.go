package grouprepo

import (
	"testing"

	"github.com/olivezebra/mensa-api/internal/adapters/contracttest"
)

func TestContract_GroupRepo(t *testing.T) {
	contracttest.RunGroupRepo(t, func(t *testing.T) (contracttest.GroupStore, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
