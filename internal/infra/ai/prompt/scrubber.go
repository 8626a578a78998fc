package prompt

import "fmt"

// GetSystemPrompt is the fixed system instruction for text scrubbing.
func GetSystemPrompt() string {
	return "You are a professional resume anonymization assistant that removes personal information while preserving professional details."
}

const rubric = `You are a resume anonymization assistant. Your task is to remove all personal identifying information from the following text while preserving professional experience and skills. Specifically:

1. Remove or replace:
   - Names (first, last, full)
   - Email addresses
   - Phone numbers
   - Physical addresses
   - Social media handles
   - Personal websites
   - Age, gender, or other demographic information
   - Photos or image references
   - References to specific schools, universities, or educational institutions
   - References to specific companies or organizations
   - Dates (years can be kept but specific dates should be removed)

2. Preserve:
   - Professional skills and qualifications
   - Job titles and roles
   - Years of experience
   - Technical skills and tools
   - Project descriptions
   - Achievements and accomplishments
   - Industry-specific terminology

3. Format:
   - Return only the scrubbed text
   - Do not include any explanations or metadata
   - Maintain the original structure and formatting where possible
   - Use placeholders like [COMPANY], [UNIVERSITY], etc. for removed information

Here is the text to process:
%s`

// GetUserPrompt embeds the caller's text after the anonymization rubric.
func GetUserPrompt(text string) string {
	return fmt.Sprintf(rubric, text)
}
