package safety

// CriterionEvaluation is the model's assessment of one IELTS marking criterion.
type CriterionEvaluation struct {
	Band         float64  `json:"band"`
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// WritingCriteria holds the four IELTS writing criteria.
type WritingCriteria struct {
	TaskResponse             CriterionEvaluation `json:"task_response"`
	CoherenceCohesion        CriterionEvaluation `json:"coherence_cohesion"`
	LexicalResource          CriterionEvaluation `json:"lexical_resource"`
	GrammaticalRangeAccuracy CriterionEvaluation `json:"grammatical_range_accuracy"`
}

// WritingMetrics are optional text statistics reported by the model.
type WritingMetrics struct {
	WordCount             int     `json:"word_count"`
	ParagraphCount        int     `json:"paragraph_count"`
	AverageSentenceLength float64 `json:"average_sentence_length"`
}

// WritingEvaluation is a validated writing assessment.
type WritingEvaluation struct {
	OverallBand     float64         `json:"overall_band"`
	Criteria        WritingCriteria `json:"criteria"`
	Metrics         *WritingMetrics `json:"metrics,omitempty"`
	OverallFeedback string          `json:"overall_feedback"`
}

// CriterionBands maps criterion keys to their bands.
func (e WritingEvaluation) CriterionBands() map[string]float64 {
	return map[string]float64{
		"task_response":              e.Criteria.TaskResponse.Band,
		"coherence_cohesion":         e.Criteria.CoherenceCohesion.Band,
		"lexical_resource":           e.Criteria.LexicalResource.Band,
		"grammatical_range_accuracy": e.Criteria.GrammaticalRangeAccuracy.Band,
	}
}

// SpeakingCriteria holds the four IELTS speaking criteria.
type SpeakingCriteria struct {
	FluencyCoherence         CriterionEvaluation `json:"fluency_coherence"`
	LexicalResource          CriterionEvaluation `json:"lexical_resource"`
	GrammaticalRangeAccuracy CriterionEvaluation `json:"grammatical_range_accuracy"`
	Pronunciation            CriterionEvaluation `json:"pronunciation"`
}

// SpeakingMetrics are optional delivery statistics reported by the model.
type SpeakingMetrics struct {
	WordsPerMinute  float64 `json:"words_per_minute"`
	FillerWordCount int     `json:"filler_word_count"`
	UniqueWordRatio float64 `json:"unique_word_ratio"`
}

// SpeakingEvaluation is a validated speaking assessment.
type SpeakingEvaluation struct {
	OverallBand     float64          `json:"overall_band"`
	Criteria        SpeakingCriteria `json:"criteria"`
	Metrics         *SpeakingMetrics `json:"metrics,omitempty"`
	OverallFeedback string           `json:"overall_feedback"`
}

// CriterionBands maps criterion keys to their bands.
func (e SpeakingEvaluation) CriterionBands() map[string]float64 {
	return map[string]float64{
		"fluency_coherence":          e.Criteria.FluencyCoherence.Band,
		"lexical_resource":           e.Criteria.LexicalResource.Band,
		"grammatical_range_accuracy": e.Criteria.GrammaticalRangeAccuracy.Band,
		"pronunciation":              e.Criteria.Pronunciation.Band,
	}
}

// MapText applies fn to every free-text field, e.g. to scrub markup before
// the evaluation is rendered.
func (c CriterionEvaluation) MapText(fn func(string) string) CriterionEvaluation {
	c.Summary = fn(c.Summary)
	c.Strengths = mapStrings(c.Strengths, fn)
	c.Improvements = mapStrings(c.Improvements, fn)
	return c
}

// MapText applies fn to every free-text field of the evaluation.
func (e WritingEvaluation) MapText(fn func(string) string) WritingEvaluation {
	e.Criteria.TaskResponse = e.Criteria.TaskResponse.MapText(fn)
	e.Criteria.CoherenceCohesion = e.Criteria.CoherenceCohesion.MapText(fn)
	e.Criteria.LexicalResource = e.Criteria.LexicalResource.MapText(fn)
	e.Criteria.GrammaticalRangeAccuracy = e.Criteria.GrammaticalRangeAccuracy.MapText(fn)
	e.OverallFeedback = fn(e.OverallFeedback)
	return e
}

// MapText applies fn to every free-text field of the evaluation.
func (e SpeakingEvaluation) MapText(fn func(string) string) SpeakingEvaluation {
	e.Criteria.FluencyCoherence = e.Criteria.FluencyCoherence.MapText(fn)
	e.Criteria.LexicalResource = e.Criteria.LexicalResource.MapText(fn)
	e.Criteria.GrammaticalRangeAccuracy = e.Criteria.GrammaticalRangeAccuracy.MapText(fn)
	e.Criteria.Pronunciation = e.Criteria.Pronunciation.MapText(fn)
	e.OverallFeedback = fn(e.OverallFeedback)
	return e
}

func mapStrings(items []string, fn func(string) string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}
