package services

import (
	"strings"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/knowledge"
)

const (
	emptyQueryReply = "I didn't get a message. Please type your question."
	greetingReply   = "Hello! Tell me what you need help with or ask a question."
	emptyCorpusReply = "I don't have any FAQ loaded yet. Please add entries to faq.yml."
	noMatchReply     = "I couldn't find a confident answer. Can you rephrase or give more details?"
)

var greetings = map[string]struct{}{
	"hi":           {},
	"hello":        {},
	"hey":          {},
	"good morning": {},
	"good evening": {},
}

// AnswerResult is what the router sends back for a knowledge-base
// question.
type AnswerResult struct {
	Matched bool
	Reply   string
	Score   float64
}

// AnswerService wraps the lexical engine with a confidence threshold.
// Same query against the same corpus always yields the same result;
// there are no side effects and no external calls on this path.
type AnswerService struct {
	engine        *knowledge.Engine
	minConfidence float64
}

func NewAnswerService(engine *knowledge.Engine, minConfidence float64) *AnswerService {
	return &AnswerService{engine: engine, minConfidence: minConfidence}
}

func (s *AnswerService) Answer(text string) AnswerResult {
	q := strings.TrimSpace(text)
	if q == "" {
		return AnswerResult{Matched: false, Reply: emptyQueryReply, Score: 0}
	}

	if _, ok := greetings[strings.ToLower(q)]; ok {
		return AnswerResult{Matched: true, Reply: greetingReply, Score: 1.0}
	}

	if s.engine.Size() == 0 {
		return AnswerResult{Matched: false, Reply: emptyCorpusReply, Score: 0}
	}

	matches := s.engine.Query(q)
	if len(matches) == 0 {
		return AnswerResult{Matched: false, Reply: noMatchReply, Score: 0}
	}

	best := matches[0]
	if best.Score < s.minConfidence {
		return AnswerResult{Matched: false, Reply: noMatchReply, Score: best.Score}
	}
	return AnswerResult{Matched: true, Reply: best.Record.Answer, Score: best.Score}
}
