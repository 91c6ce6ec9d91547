package mongo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStatusModelIsLive(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &StatusModel{ExpiresAt: now.Add(time.Hour)}

	assert.True(t, s.IsLive(now))
	assert.False(t, s.IsLive(now.Add(time.Hour)))
	assert.False(t, s.IsLive(now.Add(2*time.Hour)))

	var missing *StatusModel
	assert.False(t, missing.IsLive(now))
}

func TestIsIndexOptionsConflict(t *testing.T) {
	optionsConflict := mongo.CommandError{Code: 85, Name: "IndexOptionsConflict"}
	keySpecsConflict := mongo.CommandError{Code: 86, Name: "IndexKeySpecsConflict"}

	assert.True(t, isIndexOptionsConflict(optionsConflict))
	assert.True(t, isIndexOptionsConflict(fmt.Errorf("create index: %w", optionsConflict)))
	assert.False(t, isIndexOptionsConflict(keySpecsConflict))
	assert.False(t, isIndexOptionsConflict(errors.New("connection refused")))
	assert.False(t, isIndexOptionsConflict(nil))
}
