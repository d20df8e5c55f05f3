package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, ApproxTokens(""))
	assert.Equal(t, 1, ApproxTokens("abc"))
	assert.Equal(t, 1, ApproxTokens("abcd"))
	assert.Equal(t, 2, ApproxTokens("abcde"))
}

func TestSplitTextOrdersAndBounds(t *testing.T) {
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, strings.Repeat("word ", 20))
	}
	text := strings.Join(lines, "\n")

	c := New(50, 0)
	chunks, err := c.SplitText(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Pos)
		sum := 0
		for _, l := range strings.Split(ch.Text, "\n") {
			sum += ApproxTokens(l)
		}
		assert.Equal(t, sum, ch.TokenCnt)
		assert.Positive(t, ch.TokenCnt)
	}
}

func TestSplitTextOverlap(t *testing.T) {
	// 40-char lines are 10 tokens each: target 50 closes a chunk every 5
	// lines and overlap 20 seeds the next chunk with the last 2.
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("line-%02d %s", i, strings.Repeat("x", 32)))
	}
	text := strings.Join(lines, "\n")

	c := New(50, 20)
	chunks, err := c.SplitText(context.Background(), text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prevLines := strings.Split(chunks[i-1].Text, "\n")
		curLines := strings.Split(chunks[i].Text, "\n")
		require.GreaterOrEqual(t, len(curLines), 2)
		assert.Equal(t, prevLines[len(prevLines)-2:], curLines[:2])
	}
}

func TestSplitTextSkipsBlankLines(t *testing.T) {
	c := New(500, 0)
	chunks, err := c.SplitText(context.Background(), "alpha\n\n   \nbeta\n")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "alpha\nbeta", chunks[0].Text)
}

func TestSplitTextEmptyInput(t *testing.T) {
	c := New(500, 50)
	chunks, err := c.SplitText(context.Background(), "   \n \n")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
