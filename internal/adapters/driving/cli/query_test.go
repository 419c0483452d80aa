package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCmd_Use(t *testing.T) {
	assert.Equal(t, "query [question]", queryCmd.Use)
}

func TestQueryCmd_HasFlags(t *testing.T) {
	topK := queryCmd.Flags().Lookup("top-k")
	require.NotNil(t, topK)
	assert.Equal(t, "k", topK.Shorthand)
	assert.Equal(t, "4", topK.DefValue)

	require.NotNil(t, queryCmd.Flags().Lookup("style"))
	require.NotNil(t, queryCmd.Flags().Lookup("json"))
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"query"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmd_PrintsAnswerAndSources(t *testing.T) {
	cleanup := setupTestServices(t, &stubQueryService{answer: testAnswer()}, nil)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "what is the capital of Austria?"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Vienna is the capital [1].")
	assert.Contains(t, buf.String(), "Sources:")
	assert.Contains(t, buf.String(), `[1] "Vienna" Wikipedia`)
}

func TestQueryCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices(t, &stubQueryService{answer: testAnswer()}, nil)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "--json", "capital?"})
	defer func() {
		rootCmd.SetArgs(nil)
		queryJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"Message"`)
	assert.Contains(t, buf.String(), `"Vienna"`)
}

func TestQueryCmd_RejectsUnknownStyle(t *testing.T) {
	cleanup := setupTestServices(t, &stubQueryService{answer: testAnswer()}, nil)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"query", "--style", "harvard", "capital?"})
	defer func() {
		rootCmd.SetArgs(nil)
		queryStyle = ""
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "harvard")
}
