package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCmd_Use(t *testing.T) {
	assert.Equal(t, "chat", chatCmd.Use)
}

func TestChatCmd_StreamsAnswerAndExits(t *testing.T) {
	cleanup := setupTestServices(t, &stubQueryService{answer: testAnswer()}, nil)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("what is the capital?\nexit\n"))
	rootCmd.SetArgs([]string{"chat"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Vienna is the capital [1].")
	assert.Contains(t, buf.String(), "Sources:")
}

func TestChatCmd_ExitsOnEOF(t *testing.T) {
	cleanup := setupTestServices(t, &stubQueryService{answer: testAnswer()}, nil)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs([]string{"chat"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
}
