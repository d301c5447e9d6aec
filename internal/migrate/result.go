package migrate

// Outcome is the terminal state of one record within a run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	// OutcomePlanned is a record a dry run would have migrated.
	OutcomePlanned Outcome = "planned"
)

// Stage is the step a record was in when it reached its outcome.
type Stage string

const (
	StageEligibility Stage = "eligibility"
	StageDecode      Stage = "decode"
	StageUpload      Stage = "upload"
	StageResolveURL  Stage = "resolve_url"
	StagePersist     Stage = "persist"
)

// Result is the per-record outcome of a migration attempt.
type Result struct {
	RecordID  string  `json:"record_id" yaml:"record_id"`
	Outcome   Outcome `json:"outcome" yaml:"outcome"`
	Stage     Stage   `json:"stage" yaml:"stage"`
	BlobKey   string  `json:"blob_key,omitempty" yaml:"blob_key,omitempty"`
	SizeBytes int64   `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	// SHA256 is the digest the blob store reported for the stored object.
	SHA256 string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
	// Uploaded is set once the blob write succeeded.
	Uploaded bool   `json:"uploaded" yaml:"uploaded"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Err      error  `json:"-" yaml:"-"`
}

// Summary tallies one run. Succeeded+Skipped+Failed+Planned equals Fetched
// for a run that was not interrupted.
type Summary struct {
	Fetched   int  `json:"fetched" yaml:"fetched"`
	Succeeded int  `json:"succeeded" yaml:"succeeded"`
	Skipped   int  `json:"skipped" yaml:"skipped"`
	Failed    int  `json:"failed" yaml:"failed"`
	Planned   int  `json:"planned" yaml:"planned"`
	DryRun    bool `json:"dry_run" yaml:"dry_run"`
	// Orphaned lists blob keys that were uploaded but never written back to a record.
	Orphaned []string `json:"orphaned,omitempty" yaml:"orphaned,omitempty"`
	Results  []Result `json:"results" yaml:"results"`
}

// Processed is the number of records that reached an outcome.
func (s Summary) Processed() int {
	return s.Succeeded + s.Skipped + s.Failed + s.Planned
}

// Failures returns the failed results in processing order.
func (s Summary) Failures() []Result {
	var out []Result
	for _, res := range s.Results {
		if res.Outcome == OutcomeFailed {
			out = append(out, res)
		}
	}
	return out
}

func (s *Summary) add(res Result) {
	switch res.Outcome {
	case OutcomeSucceeded:
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomePlanned:
		s.Planned++
	default:
		s.Failed++
		if res.Uploaded {
			s.Orphaned = append(s.Orphaned, res.BlobKey)
		}
	}
	s.Results = append(s.Results, res)
}
