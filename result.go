package persist

import "errors"

// SaveResult is the outcome of writing one entry during Sync.
type SaveResult struct {
	Name string
	Err  error
}

// SyncResult holds one SaveResult per entry attempted by Sync, in name order.
type SyncResult struct {
	Results []SaveResult
}

// Failed returns the results that carry an error.
func (r SyncResult) Failed() []SaveResult {
	var failed []SaveResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins every save failure, or returns nil when all entries were written.
func (r SyncResult) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}
