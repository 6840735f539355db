package helpers

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, ParseDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("later", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("0s", time.Minute))
}

func TestNullConversions(t *testing.T) {
	id := int64(7)
	name := "Mon 9:00"

	assert.Equal(t, sql.NullInt64{Int64: 7, Valid: true}, GetNullInt64(&id))
	assert.Equal(t, sql.NullInt64{}, GetNullInt64(nil))
	assert.Equal(t, sql.NullString{String: name, Valid: true}, GetNullString(&name))

	assert.Nil(t, Int64Ptr(sql.NullInt64{}))
	assert.Equal(t, int64(7), *Int64Ptr(sql.NullInt64{Int64: 7, Valid: true}))
	assert.Nil(t, StringPtr(sql.NullString{}))
	assert.Equal(t, name, *StringPtr(sql.NullString{String: name, Valid: true}))
}
