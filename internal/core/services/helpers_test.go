package services

import (
	"context"
	"errors"
	"strings"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

const testDims = 8

// hashEmbedder produces deterministic vectors from text content so
// identical passages always land in the same spot.
type hashEmbedder struct {
	failing bool
	calls   int
}

func (e *hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.failing {
		return nil, errors.New("embedding service offline")
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, testDims)
		for j, b := range []byte(t) {
			v[j%testDims] += float32(b)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (e *hashEmbedder) Dimensions() int { return testDims }

// scriptedLLM returns a canned answer and records the prompt it saw.
type scriptedLLM struct {
	answer   string
	err      error
	received []domain.Message
}

func (l *scriptedLLM) Complete(_ context.Context, messages []domain.Message) (string, error) {
	l.received = messages
	if l.err != nil {
		return "", l.err
	}
	return l.answer, nil
}

func (l *scriptedLLM) CompleteStream(_ context.Context, messages []domain.Message) (<-chan string, <-chan error) {
	l.received = messages
	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		if l.err != nil {
			errs <- l.err
			return
		}
		for _, word := range strings.SplitAfter(l.answer, " ") {
			out <- word
		}
	}()
	return out, errs
}

func (l *scriptedLLM) systemPrompt() string {
	if len(l.received) == 0 {
		return ""
	}
	return l.received[0].Content
}
