package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPayloadObjectName(t *testing.T) {
	at := time.Date(2026, 2, 3, 22, 0, 0, 0, time.UTC)
	name := PayloadObjectName("fireflies", "composite:abc123", at)
	assert.Equal(t, "webhooks/fireflies/2026/02/03/composite_abc123.json", name)
}
