package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("  hello world  \n"))

	v, err := GetSimpleText(reader, "Say something", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", v)
	assert.Contains(t, out.String(), "Say something")
}

func TestGetSimpleText_PartialLineAtEOF(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("no newline"))

	v, err := GetSimpleText(reader, "Say something", &out)
	require.NoError(t, err)
	assert.Equal(t, "no newline", v)
}

func TestGetTextWithDefault(t *testing.T) {
	var out bytes.Buffer

	// empty input falls back to the default
	reader := bufio.NewReader(strings.NewReader("\n"))
	v, err := GetTextWithDefault(reader, "Currency", "USD", &out)
	require.NoError(t, err)
	assert.Equal(t, "USD", v)
	assert.Contains(t, out.String(), "[USD]")

	// explicit input wins
	reader = bufio.NewReader(strings.NewReader("IDR\n"))
	v, err = GetTextWithDefault(reader, "Currency", "USD", &out)
	require.NoError(t, err)
	assert.Equal(t, "IDR", v)
}

func TestGetPassword(t *testing.T) {
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) { return []byte("s3cret"), nil }
	t.Cleanup(func() { readPassword = orig })

	var out bytes.Buffer
	pw, err := GetPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), pw)
	assert.Contains(t, out.String(), "Enter password")
}
