package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	line := []byte(`{"type":"chapter.read","user_id":"u1","manga_id":"m1","chapter_id":"c1","level":2,"at":"2024-05-01T10:00:00Z"}`)
	assert.Equal(t, "2024-05-01T10:00:00Z  u1 read m1/c1 (level 2)", format(line, true))
	assert.Equal(t, string(line), format(line, false))

	assert.Equal(t, "{\n  \"type\": \"welcome\"\n}", format([]byte(`{"type":"welcome"}`), true))
	assert.Equal(t, "plain text", format([]byte("plain text"), true))
}
