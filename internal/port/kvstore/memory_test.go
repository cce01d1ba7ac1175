package kvstore_test

import (
	"testing"

	"github.com/Strob0t/TaskFlow/internal/port/kvstore"
	"github.com/Strob0t/TaskFlow/internal/port/kvstore/kvstoretest"
)

func TestMemoryCompliance(t *testing.T) {
	kvstoretest.Run(t, kvstore.NewMemory())
}
