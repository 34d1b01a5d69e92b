package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/weiihann/simbench/dataset"
)

// Diff writes a structural diff between two datasets and reports whether
// they differ. Coloring adds ANSI red/green to the output.
func Diff(w io.Writer, before, after *dataset.Dataset, coloring bool) (bool, error) {
	left, err := dataset.Marshal(before, dataset.FormatJSON)
	if err != nil {
		return false, fmt.Errorf("encode before: %w", err)
	}

	right, err := dataset.Marshal(after, dataset.FormatJSON)
	if err != nil {
		return false, fmt.Errorf("encode after: %w", err)
	}

	delta, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return false, fmt.Errorf("compare: %w", err)
	}

	if !delta.Modified() {
		return false, nil
	}

	var leftObj map[string]any
	if err := json.Unmarshal(left, &leftObj); err != nil {
		return false, fmt.Errorf("decode before: %w", err)
	}

	asciiFmt := formatter.NewAsciiFormatter(leftObj, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       coloring,
	})

	out, err := asciiFmt.Format(delta)
	if err != nil {
		return true, fmt.Errorf("format diff: %w", err)
	}

	if _, err := io.WriteString(w, out); err != nil {
		return true, err
	}

	return true, nil
}
