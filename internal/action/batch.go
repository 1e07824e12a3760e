// SPDX-License-Identifier: MPL-2.0

package action

type (
	// BatchFailure records one failed unit of a batch action.
	BatchFailure struct {
		Name  string `json:"name"`
		Error string `json:"error"`
	}

	// BatchReport accumulates the outcome of a batch action whose units are
	// attempted independently.
	BatchReport struct {
		Requested int
		Created   []string
		Failed    []BatchFailure
	}
)

// Succeed records a created unit.
func (b *BatchReport) Succeed(name string) {
	b.Created = append(b.Created, name)
}

// Failure records a failed unit.
func (b *BatchReport) Failure(name string, err error) {
	b.Failed = append(b.Failed, BatchFailure{Name: name, Error: err.Error()})
}

// Payload renders the report in the standard batch shape.
func (b *BatchReport) Payload() Payload {
	created := b.Created
	if created == nil {
		created = []string{}
	}
	failed := b.Failed
	if failed == nil {
		failed = []BatchFailure{}
	}
	return Payload{
		"created":         created,
		"failed":          failed,
		"total_requested": b.Requested,
		"total_created":   len(b.Created),
	}
}

// Err returns a PartialBatchError when any unit failed.
func (b *BatchReport) Err() error {
	if len(b.Failed) == 0 {
		return nil
	}
	return &PartialBatchError{Requested: b.Requested, Failed: len(b.Failed)}
}
