package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune            // default ','
	HasHeader  bool            // if true, first row is skipped but sent to HeaderCh
	HeaderCh   chan<- []string // optional: receives the header row
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV reads a CSV file and sends rows to a channel.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := newCSVReader(r, opts)

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				trimFields(record)
			}

			if first && opts.HasHeader {
				first = false
				if opts.HeaderCh != nil {
					select {
					case opts.HeaderCh <- record:
					case <-ctx.Done():
						errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled sending header")
						return
					}
				}
				continue
			}
			first = false

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// Row is one data row of a headed CSV, keyed by column name.
type Row struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of column name, or "" when absent.
func (r Row) Get(name string) string {
	return strings.TrimSpace(r.Fields[name])
}

// StreamCSVRows reads a headed CSV and sends each data row keyed by header
// name. It waits for the header before returning: a missing required column
// is returned as an error before any row is streamed. Short rows leave the
// missing columns empty.
func StreamCSVRows(ctx context.Context, r io.Reader, opts CSVOptions, required ...string) (<-chan Row, <-chan error, error) {
	ctx, cancel := context.WithCancel(ctx)

	headerCh := make(chan []string, 1)
	opts.HasHeader = true
	opts.HeaderCh = headerCh
	records, recordErrs := StreamCSV(ctx, r, opts)

	index, err := awaitHeader(ctx, headerCh, recordErrs, required)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	rowCh := make(chan Row, 64)
	errCh := make(chan error, 1)

	go func() {
		defer cancel()
		defer close(rowCh)
		defer close(errCh)

		line := 1
		for record := range records {
			line++
			fields := make(map[string]string, len(index))
			for name, i := range index {
				if i < len(record) {
					fields[name] = record[i]
				}
			}

			select {
			case rowCh <- Row{Line: line, Fields: fields}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
		if err := <-recordErrs; err != nil {
			errCh <- err
		}
	}()

	return rowCh, errCh, nil
}

// awaitHeader blocks until StreamCSV has delivered the header row or
// finished without one, then maps column names to positions.
func awaitHeader(ctx context.Context, headerCh <-chan []string, errs <-chan error, required []string) (map[string]int, error) {
	var header []string
	select {
	case header = <-headerCh:
	case err, ok := <-errs:
		if ok && err != nil {
			return nil, eris.Wrap(err, "csv: read header")
		}
		// The stream may close right after a header-only input.
		select {
		case header = <-headerCh:
		default:
			return nil, eris.New("csv: missing header row")
		}
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "csv: context cancelled")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("csv: missing required columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

func newCSVReader(r io.Reader, opts CSVOptions) *csv.Reader {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields
	return reader
}

func trimFields(record []string) {
	for i, field := range record {
		record[i] = strings.TrimSpace(field)
	}
}
