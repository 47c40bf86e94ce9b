package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintPanic(t *testing.T) {
	var buf bytes.Buffer

	printPanic(&buf, "boom")

	assert.Contains(t, buf.String(), "panic caught, terminating: boom")
	assert.Contains(t, buf.String(), "goroutine")
}

func TestHide(t *testing.T) {
	assert.Equal(t, "", hide(""))
	assert.Equal(t, "**hidden**", hide("secret"))
}
