package storage

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectSize(t *testing.T) {
	assert.Equal(t, int64(5), objectSize(strings.NewReader("hello")))
	assert.Equal(t, int64(3), objectSize(bytes.NewReader([]byte("abc"))))
	assert.Equal(t, int64(4), objectSize(bytes.NewBufferString("data")))

	partly := strings.NewReader("hello")
	_, _ = partly.Read(make([]byte, 2))
	assert.Equal(t, int64(3), objectSize(partly), "only the unread part is uploaded")

	assert.Equal(t, int64(-1), objectSize(bufio.NewReader(strings.NewReader("x"))))
	assert.Equal(t, int64(-1), objectSize(io.LimitReader(strings.NewReader("x"), 1)))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("revisions/a.json"))
	assert.Equal(t, "application/octet-stream", contentType("attachments/d/a.png"))
}
