package jobs

import "time"

// Creation methods.
const (
	CreationAISummary = "ai_summary"
	CreationManual    = "manual"
)

// Job is the unit of tracked work moving through intake, allocation,
// writing and process stages.
type Job struct {
	SystemID    string `json:"systemId"`
	JobID       string `json:"jobId"`
	Instruction string `json:"instruction"`

	Category         string   `json:"category,omitempty"`
	Level            string   `json:"level,omitempty"`
	WordCount        int      `json:"wordCount,omitempty"`
	ReferencingStyle string   `json:"referencingStyle,omitempty"`
	WritingStyle     string   `json:"writingStyle,omitempty"`
	Software         []string `json:"software,omitempty"`
	Topic            string   `json:"topic,omitempty"`
	JobSummary       string   `json:"jobSummary,omitempty"`

	CustomerID           string  `json:"customerId,omitempty"`
	CustomerName         string  `json:"customerName,omitempty"`
	ProjectGroup         string  `json:"projectGroup,omitempty"`
	Amount               float64 `json:"amount,omitempty"`
	SystemExpectedAmount float64 `json:"systemExpectedAmount,omitempty"`

	Status          Status  `json:"status"`
	CreationMethod  string  `json:"creationMethod"`
	CreatedBy       string  `json:"createdBy"`
	WriterAssignee  *string `json:"writerAssignee,omitempty"`
	ProcessAssignee *string `json:"processAssignee,omitempty"`

	ExpectedDeadline *time.Time `json:"expectedDeadline,omitempty"`
	StrictDeadline   *time.Time `json:"strictDeadline,omitempty"`

	SummaryVersion     int         `json:"summaryVersion"`
	SummaryGeneratedAt []time.Time `json:"summaryGeneratedAt,omitempty"`
	SummaryAcceptedAt  *time.Time  `json:"summaryAcceptedAt,omitempty"`
	CompletenessDegree int         `json:"completenessDegree"`

	FinalizedAt          *time.Time `json:"finalizedAt,omitempty"`
	WriterSelectedAt     *time.Time `json:"writerSelectedAt,omitempty"`
	FinalCopySubmittedAt *time.Time `json:"finalCopySubmittedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SummaryVersionRecord is an immutable snapshot of one AI-summary
// generation attempt. At most three per job.
type SummaryVersionRecord struct {
	ID               string    `json:"id"`
	JobSystemID      string    `json:"jobSystemId"`
	VersionNumber    int       `json:"versionNumber"`
	Topic            string    `json:"topic,omitempty"`
	WordCount        int       `json:"wordCount,omitempty"`
	ReferencingStyle string    `json:"referencingStyle,omitempty"`
	WritingStyle     string    `json:"writingStyle,omitempty"`
	SummaryText      string    `json:"summaryText,omitempty"`
	Degree           int       `json:"degree"`
	Model            string    `json:"model,omitempty"`
	GeneratedAt      time.Time `json:"generatedAt"`
}
