package domain

import "strings"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Source is one cited passage attached to an assistant answer. The ordinal
// matches the bracketed label used inside the answer text.
type Source struct {
	// Ordinal is the citation label, unique within a conversation.
	Ordinal int

	// ID is the docstore id of the cited passage.
	ID int64

	// Title is the originating article title.
	Title string

	// URL locates the originating article.
	URL string

	// Citation is the passage formatted in the configured citation style.
	Citation string

	// Excerpt is the passage text shown to the model.
	Excerpt string
}

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string

	// Sources carries the citations of an assistant turn; empty for
	// user turns.
	Sources []Source
}

// Conversation is an alternating sequence of user and assistant turns.
type Conversation struct {
	Messages []Message
}

// SourceCount reports how many sources earlier turns already cite. New
// citation ordinals continue from here so labels stay unique across the
// conversation.
func (c Conversation) SourceCount() int {
	n := 0
	for _, m := range c.Messages {
		n += len(m.Sources)
	}
	return n
}

// Answer is a complete grounded response.
type Answer struct {
	Message string
	Sources []Source
}

// PartialMessage is one streaming delta of an answer. Sources arrive
// first, then content fragments, then a final marker with Done set.
type PartialMessage struct {
	Content string
	Source  *Source
	Done    bool
}

// ArticleURL derives the canonical wiki location of an article title.
func ArticleURL(title string) string {
	return "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(title, " ", "_")
}
