package safety

import "strings"

var essayVocabulary = strings.Fields(`people often argue that modern technology has transformed
education in many ways while others believe traditional teaching methods remain essential for
developing critical thinking skills students benefit from online resources yet they may lose
focus without guidance teachers therefore should combine digital tools with classroom discussion
governments could invest more funding into schools libraries and training programmes so every
learner`)

// sampleEssay returns n words of plausible prose, one sentence per twelve words.
func sampleEssay(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			if i%12 == 0 {
				b.WriteString(". ")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(essayVocabulary[i%len(essayVocabulary)])
	}
	b.WriteString(".")
	return b.String()
}
