package fetcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainRecords(t *testing.T, records <-chan []string, errs <-chan error) ([][]string, error) {
	t.Helper()
	var out [][]string
	for rec := range records {
		out = append(out, rec)
	}
	for err := range errs {
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func TestStreamCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  CSVOptions
		want  [][]string
	}{
		{
			name:  "comma default",
			input: "name,city\nKognic,Göteborg\n",
			want:  [][]string{{"name", "city"}, {"Kognic", "Göteborg"}},
		},
		{
			name:  "semicolon",
			input: "name;city\nKTH;Stockholm\n",
			opts:  CSVOptions{Delimiter: ';'},
			want:  [][]string{{"name", "city"}, {"KTH", "Stockholm"}},
		},
		{
			name:  "trim space",
			input: " name ; city \n KTH ; Stockholm \n",
			opts:  CSVOptions{Delimiter: ';', TrimSpace: true},
			want:  [][]string{{"name", "city"}, {"KTH", "Stockholm"}},
		},
		{
			name:  "lazy quotes",
			input: "name;description\nNewCo;the \"best\" robots\n",
			opts:  CSVOptions{Delimiter: ';', LazyQuotes: true},
			want:  [][]string{{"name", "description"}, {"NewCo", `the "best" robots`}},
		},
		{
			name:  "variable field count",
			input: "name;city;type\nNewCo\n",
			opts:  CSVOptions{Delimiter: ';'},
			want:  [][]string{{"name", "city", "type"}, {"NewCo"}},
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, errs := StreamCSV(context.Background(), strings.NewReader(tt.input), tt.opts)
			got, err := drainRecords(t, records, errs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreamCSV_HeaderSeparated(t *testing.T) {
	headerCh := make(chan []string, 1)
	records, errs := StreamCSV(context.Background(), strings.NewReader("name;city\nKTH;Stockholm\n"), CSVOptions{
		Delimiter: ';',
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	got, err := drainRecords(t, records, errs)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"KTH", "Stockholm"}}, got)
	assert.Equal(t, []string{"name", "city"}, <-headerCh)
}

func TestStreamCSV_Cancelled(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("name;city\n")
	for range 5000 {
		sb.WriteString("NewCo;Uppsala\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	records, errs := StreamCSV(ctx, strings.NewReader(sb.String()), CSVOptions{Delimiter: ';'})

	<-records
	cancel()
	for range records {
	}

	select {
	case err := <-errs:
		if err != nil {
			assert.Contains(t, err.Error(), "context cancelled")
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}

func collectCSVRows(t *testing.T, rowCh <-chan Row, errCh <-chan error) []Row {
	t.Helper()
	var rows []Row
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		require.NoError(t, err)
	}
	return rows
}

func TestStreamCSVRows_Semicolon(t *testing.T) {
	input := "name;Location;Greater Stockholm Y/N\nNewCo AB;Stockholm, Sweden;Yes\nLundTech;Lund;no\n"

	rowCh, errCh, err := StreamCSVRows(context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: ';',
	}, "name", "Location")
	require.NoError(t, err)

	rows := collectCSVRows(t, rowCh, errCh)
	require.Len(t, rows, 2)
	assert.Equal(t, "NewCo AB", rows[0].Get("name"))
	assert.Equal(t, "Stockholm, Sweden", rows[0].Get("Location"))
	assert.Equal(t, "Yes", rows[0].Get("Greater Stockholm Y/N"))
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 3, rows[1].Line)
}

func TestStreamCSVRows_MissingColumn(t *testing.T) {
	input := "name;website\nNewCo;https://newco.se\n"

	_, _, err := StreamCSVRows(context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: ';',
	}, "name", "source_page", "image_url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns: source_page, image_url")
}

func TestStreamCSVRows_EmptyInput(t *testing.T) {
	_, _, err := StreamCSVRows(context.Background(), strings.NewReader(""), CSVOptions{}, "name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header row")
}

func TestStreamCSVRows_ShortRow(t *testing.T) {
	input := "name;description;website\nNewCo\n"

	rowCh, errCh, err := StreamCSVRows(context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: ';',
	})
	require.NoError(t, err)

	rows := collectCSVRows(t, rowCh, errCh)
	require.Len(t, rows, 1)
	assert.Equal(t, "NewCo", rows[0].Get("name"))
	assert.Equal(t, "", rows[0].Get("website"))
}

func TestStreamCSVRows_TrimmedHeader(t *testing.T) {
	input := " name ; type \n NewCo ; Computer vision, Robotics \n"

	rowCh, errCh, err := StreamCSVRows(context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: ';',
		TrimSpace: true,
	}, "name", "type")
	require.NoError(t, err)

	rows := collectCSVRows(t, rowCh, errCh)
	require.Len(t, rows, 1)
	assert.Equal(t, "Computer vision, Robotics", rows[0].Fields["type"])
}

func TestStreamCSVRows_HeaderOnly(t *testing.T) {
	rowCh, errCh, err := StreamCSVRows(context.Background(), strings.NewReader("name;website\n"), CSVOptions{
		Delimiter: ';',
	}, "name")
	require.NoError(t, err)
	assert.Empty(t, collectCSVRows(t, rowCh, errCh))
}

func TestStreamCSVRows_MalformedRow(t *testing.T) {
	input := "name;description\nNewCo;\"unterminated\n"

	rowCh, errCh, err := StreamCSVRows(context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: ';',
	}, "name")
	require.NoError(t, err)

	for range rowCh {
	}
	var got error
	for e := range errCh {
		got = e
	}
	require.Error(t, got)
	assert.Contains(t, got.Error(), "csv: read row")
}
