// Package bot orchestrates one chat exchange: language handling, context
// retrieval, history lookup, prompt assembly and answer generation.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/rs/zerolog"

	"github.com/foodiary/foodiary-chat/internal/embeddings"
	"github.com/foodiary/foodiary-chat/internal/genai"
	"github.com/foodiary/foodiary-chat/internal/history"
	"github.com/foodiary/foodiary-chat/internal/model"
	"github.com/foodiary/foodiary-chat/internal/searchindex"
)

const promptTemplate = `
Answer the question only based on the following two kinds of contents:

1. Related contexts:

%s

2. Previous conversation records:

%s

---

Answer the question based on the above contents: %s
Do not mention the word 'provided text' in your response, use 'my knowledge' instead.
If the contexts have no relation with the question, you must answer 'Your question goes beyond my understanding'.
`

const translatePromptTemplate = `
Translate the following text to %s: %s
Just translate the text, don't add any additional information.
`

const defaultTopK = 10

// Bot answers user questions with retrieved context and recent history.
type Bot struct {
	gen         genai.Generator
	emb         embeddings.Provider
	idx         searchindex.Index
	history     *history.Manager
	defaultLang string
	log         zerolog.Logger
}

func New(gen genai.Generator, emb embeddings.Provider, idx searchindex.Index, hist *history.Manager, defaultLang string, log zerolog.Logger) *Bot {
	if defaultLang == "" {
		defaultLang = "zh-TW"
	}
	return &Bot{gen: gen, emb: emb, idx: idx, history: hist, defaultLang: defaultLang, log: log}
}

// Ask answers one question for a user. Retrieval runs against an English
// rendering of the query; the answer is translated back to language (the
// configured default when empty).
func (b *Bot) Ask(ctx context.Context, userID, query, language string) (string, error) {
	if language == "" {
		language = b.defaultLang
	}

	searchQuery := query
	if whatlanggo.Detect(query).Lang != whatlanggo.Eng {
		translated, err := b.translate(ctx, "English", query)
		if err != nil {
			// Retrieval quality degrades but the question is still answerable.
			b.log.Warn().Err(err).Msg("query translation failed, searching untranslated")
		} else {
			searchQuery = translated
		}
	}

	vec, err := b.emb.Embed(ctx, searchQuery)
	if err != nil {
		b.log.Warn().Err(err).Msg("query embedding failed, using keyword-only search")
		vec = nil
	}
	hits, err := b.idx.Search(ctx, searchQuery, vec, defaultTopK)
	if err != nil {
		return "", fmt.Errorf("context retrieval: %w", err)
	}

	records, err := b.history.Recent(ctx, userID, 0)
	if err != nil {
		// History is an enhancement; an unreachable store must not block the
		// answer.
		b.log.Warn().Err(err).Str("user_id", userID).Msg("history lookup failed, answering without it")
		records = nil
	}

	prompt := fmt.Sprintf(promptTemplate, formatContexts(hits), formatChatRecords(records), query)
	answer, err := b.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("answer generation: %w", err)
	}

	if language != "" && !strings.EqualFold(language, "en") {
		translated, err := b.translate(ctx, language, answer)
		if err != nil {
			b.log.Warn().Err(err).Str("language", language).Msg("answer translation failed, returning untranslated")
			return answer, nil
		}
		answer = translated
	}
	return answer, nil
}

// Archive records a completed exchange in the conversation history.
func (b *Bot) Archive(ctx context.Context, userID, query, answer string) error {
	return b.history.Record(ctx, userID, query, answer)
}

func (b *Bot) translate(ctx context.Context, language, text string) (string, error) {
	prompt := fmt.Sprintf(translatePromptTemplate, language, text)
	out, err := b.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func formatContexts(hits []model.DocumentHit) string {
	contents := make([]string, 0, len(hits))
	for _, hit := range hits {
		contents = append(contents, hit.Content)
	}
	return strings.Join(contents, "\n\n---\n\n")
}

func formatChatRecords(records []model.ConversationRecord) string {
	var lines []string
	for _, rec := range records {
		for _, msg := range rec.Turns {
			lines = append(lines, fmt.Sprintf("%s: %s\n", roleLabel(msg.Role), msg.Text))
		}
	}
	return strings.Join(lines, "\n---")
}

func roleLabel(r model.Role) string {
	switch r {
	case model.RoleBot:
		return "Bot"
	default:
		return "User"
	}
}
