package inmemorystore

import (
	"testing"

	"github.com/specialistvlad/taskgrid/internal/store"
	"github.com/specialistvlad/taskgrid/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}
