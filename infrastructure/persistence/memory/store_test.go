package memory

import (
	"testing"

	"multinet/application/ports"
	"multinet/infrastructure/persistence/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.Store {
		return NewStore()
	})
}
