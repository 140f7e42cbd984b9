package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/ielts-prep-api/internal/models"
	"github.com/noah-isme/ielts-prep-api/pkg/ai"
	"github.com/noah-isme/ielts-prep-api/pkg/safety"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Prompt{}, &models.EvaluationSession{}))
	return db
}

func seedServicePrompts(t *testing.T, db *gorm.DB) (models.Prompt, models.Prompt) {
	t.Helper()
	writing := models.Prompt{
		Module:   models.ModuleWriting,
		TaskType: "task2",
		Title:    "Technology in schools",
		Question: "Some people think technology harms education. Discuss both views.",
		MinWords: 250,
	}
	speaking := models.Prompt{
		Module:   models.ModuleSpeaking,
		TaskType: "part2",
		Title:    "A favourite place",
		Question: "Describe a place you enjoy visiting.",
	}
	require.NoError(t, db.Create(&writing).Error)
	require.NoError(t, db.Create(&speaking).Error)
	return writing, speaking
}

var serviceVocabulary = strings.Fields(`people often argue that modern technology has transformed
education in many ways while others believe traditional teaching methods remain essential for
developing critical thinking skills students benefit from online resources yet they may lose
focus without guidance`)

// prose returns n words of plausible text, one sentence per ten words.
func prose(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			if i%10 == 0 {
				b.WriteString(". ")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(serviceVocabulary[i%len(serviceVocabulary)])
	}
	b.WriteString(".")
	return b.String()
}

func criterion(band float64, summary string) safety.CriterionEvaluation {
	return safety.CriterionEvaluation{Band: band, Summary: summary, Strengths: []string{}, Improvements: []string{}}
}

func writingEvaluation(overall float64) *safety.WritingEvaluation {
	return &safety.WritingEvaluation{
		OverallBand: overall,
		Criteria: safety.WritingCriteria{
			TaskResponse:             criterion(6.5, "Addresses the task."),
			CoherenceCohesion:        criterion(7, "Use <b>linking</b> words more often."),
			LexicalResource:          criterion(6, "Adequate range."),
			GrammaticalRangeAccuracy: criterion(6.5, "Mostly accurate."),
		},
		OverallFeedback: "Solid answer.",
	}
}

func speakingEvaluation(overall float64) *safety.SpeakingEvaluation {
	return &safety.SpeakingEvaluation{
		OverallBand: overall,
		Criteria: safety.SpeakingCriteria{
			FluencyCoherence:         criterion(7, "Fluent."),
			LexicalResource:          criterion(7, "Varied."),
			GrammaticalRangeAccuracy: criterion(6.5, "Some slips."),
			Pronunciation:            criterion(7.5, "Clear."),
		},
		OverallFeedback: "Good fluency.",
	}
}

type stubEvaluator struct {
	mu     sync.Mutex
	result ai.EvaluationResult
	err    error
	inputs []ai.EvaluationInput
}

func (s *stubEvaluator) Evaluate(_ context.Context, input ai.EvaluationInput) (ai.EvaluationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, input)
	return s.result, s.err
}

func (s *stubEvaluator) Provider() string {
	return "stub"
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []EvaluationEvent
}

func (p *recordingPublisher) PublishEvaluation(_ context.Context, event EvaluationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func floatPointer(v float64) *float64 {
	return &v
}
