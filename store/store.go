// Package store indexes benchmark runs in LevelDB so that runs can be
// looked up by commit and measurements read back as per-benchmark time
// series without re-parsing the whole history file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/weiihann/simbench/dataset"
)

// ErrNotFound is returned when a run is not in the index.
var ErrNotFound = errors.New("not found")

// Key layout:
//
//	r/<suite>\x00<date, 16 hex digits>\x00<commit>  -> run JSON
//	c/<suite>\x00<commit>                           -> run key
//	s/<suite>                                       -> empty
const (
	runPrefix    = "r/"
	commitPrefix = "c/"
	suitePrefix  = "s/"
	sep          = "\x00"
)

// Store is a LevelDB-backed run index.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates an index at path. An empty path keeps the index in
// memory.
func Open(path string) (*Store, error) {
	var (
		db  *leveldb.DB
		err error
	)

	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("open index at %q: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func runKey(suite string, date int64, commit string) []byte {
	return []byte(fmt.Sprintf("%s%s%s%016x%s%s",
		runPrefix, suite, sep, uint64(date), sep, commit))
}

func commitKey(suite, commit string) []byte {
	return []byte(commitPrefix + suite + sep + commit)
}

// Ingest writes every run of ds into the index in one batch. Re-ingesting
// the same data is a no-op; a run recorded again for the same commit
// replaces the older entry.
func (s *Store) Ingest(ds *dataset.Dataset) (int, error) {
	batch := new(leveldb.Batch)
	pending := make(map[string][]byte)
	n := 0

	for _, suite := range ds.Entries {
		batch.Put([]byte(suitePrefix+suite.Name), nil)

		for _, run := range suite.Runs {
			ck := commitKey(suite.Name, run.Commit.ID)

			old, err := s.db.Get(ck, nil)
			if p, ok := pending[string(ck)]; ok {
				old, err = p, nil
			}

			switch {
			case err == nil:
				batch.Delete(old)
			case !errors.Is(err, leveldb.ErrNotFound):
				return 0, fmt.Errorf("lookup %s: %w", run.Commit.ID, err)
			}

			data, err := json.Marshal(run)
			if err != nil {
				return 0, fmt.Errorf("encode run %s: %w", run.Commit.ID, err)
			}

			rk := runKey(suite.Name, run.Date, run.Commit.ID)
			batch.Put(rk, data)
			batch.Put(ck, rk)
			pending[string(ck)] = rk
			n++
		}
	}

	if err := s.db.Write(batch, nil); err != nil {
		return 0, fmt.Errorf("write batch: %w", err)
	}

	return n, nil
}

// Suites lists indexed suite names in key order.
func (s *Store) Suites() ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(suitePrefix)), nil)
	defer iter.Release()

	var names []string
	for iter.Next() {
		names = append(names, string(iter.Key()[len(suitePrefix):]))
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("list suites: %w", err)
	}

	return names, nil
}

// RunByCommit returns the indexed run for a full commit id.
func (s *Store) RunByCommit(suite, commit string) (*dataset.Run, error) {
	rk, err := s.db.Get(commitKey(suite, commit), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: commit %s in suite %q", ErrNotFound, commit, suite)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", commit, err)
	}

	data, err := s.db.Get(rk, nil)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", commit, err)
	}

	var run dataset.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", commit, err)
	}

	return &run, nil
}

// Runs returns every indexed run of suite, oldest first.
func (s *Store) Runs(suite string) ([]dataset.Run, error) {
	var runs []dataset.Run

	err := s.scan(suite, func(run dataset.Run) {
		runs = append(runs, run)
	})

	return runs, err
}

// Point is one sample of a benchmark time series.
type Point struct {
	Date     int64
	CommitID string
	Value    float64
	Unit     string
}

// Series returns the values of one benchmark across all indexed runs of a
// suite, ordered by run date. Runs without the benchmark are skipped.
func (s *Store) Series(suite, bench string) ([]Point, error) {
	var (
		points  []Point
		scanErr error
	)

	err := s.scan(suite, func(run dataset.Run) {
		if scanErr != nil {
			return
		}

		m := run.Find(bench)
		if m == nil {
			return
		}

		v, err := m.Float()
		if err != nil {
			scanErr = err
			return
		}

		points = append(points, Point{
			Date:     run.Date,
			CommitID: run.Commit.ID,
			Value:    v,
			Unit:     m.Unit,
		})
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}

	// Keys sort by date already; keep the order stable for equal dates.
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})

	return points, nil
}

// Benchmarks lists the distinct measurement names seen in a suite.
func (s *Store) Benchmarks(suite string) ([]string, error) {
	seen := make(map[string]struct{})

	err := s.scan(suite, func(run dataset.Run) {
		for _, m := range run.Benches {
			seen[m.Name] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

func (s *Store) scan(suite string, fn func(dataset.Run)) error {
	prefix := []byte(runPrefix + suite + sep)

	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	for iter.Next() {
		var run dataset.Run
		if err := json.Unmarshal(iter.Value(), &run); err != nil {
			return fmt.Errorf("decode %q: %w", iter.Key(), err)
		}

		fn(run)
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("scan suite %q: %w", suite, err)
	}

	return nil
}
