package dataset

import "time"

// AppendOptions controls Append.
type AppendOptions struct {
	// Now stamps lastUpdate. Zero means time.Now.
	Now time.Time
	// RepoURL replaces repoUrl when non-empty.
	RepoURL string
	// MaxItems caps the number of runs kept per suite, dropping the oldest.
	// Zero or negative keeps everything.
	MaxItems int
}

// Append adds run to the end of the named suite, creating the suite when it
// does not exist. Existing runs are never modified, only trimmed from the
// front when MaxItems is exceeded.
//
// It returns the newest earlier run whose commit differs from run's, which is
// the baseline a regression check should compare against, or nil.
func Append(ds *Dataset, suite string, run Run, opts AppendOptions) *Run {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	ds.LastUpdate = now.UnixMilli()
	if opts.RepoURL != "" {
		ds.RepoURL = opts.RepoURL
	}

	if run.Benches == nil {
		run.Benches = []Measurement{}
	}

	s := ds.Suite(suite)
	if s == nil {
		ds.Entries = append(ds.Entries, Suite{Name: suite, Runs: []Run{run}})
		return nil
	}

	var prev *Run

	for i := len(s.Runs) - 1; i >= 0; i-- {
		if s.Runs[i].Commit.ID != run.Commit.ID {
			p := s.Runs[i]
			prev = &p

			break
		}
	}

	s.Runs = append(s.Runs, run)

	if opts.MaxItems > 0 && len(s.Runs) > opts.MaxItems {
		s.Runs = append([]Run(nil), s.Runs[len(s.Runs)-opts.MaxItems:]...)
	}

	return prev
}
