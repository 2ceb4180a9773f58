package fetcher

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// RecordsKey is the wrapper key accepted around the record array.
const RecordsKey = "companies"

// DecodeRecords streams the elements of a JSON record array. The input is
// either a top-level array or an object holding the array under
// RecordsKey. Each element is sent undecoded so that a malformed element
// only fails that record.
// Both channels are closed when processing completes.
func DecodeRecords(ctx context.Context, r io.Reader) (<-chan json.RawMessage, <-chan error) {
	outCh := make(chan json.RawMessage, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := json.NewDecoder(r)

		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "json: read opening token")
			return
		}

		delim, ok := tok.(json.Delim)
		if !ok || (delim != '[' && delim != '{') {
			errCh <- eris.Errorf("json: expected '[' or '{', got %v", tok)
			return
		}

		if delim == '{' {
			if err := seekKey(decoder, RecordsKey); err != nil {
				errCh <- err
				return
			}
		}

		for decoder.More() {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}

			var item json.RawMessage
			if err := decoder.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "json: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}
		}

		// Consume closing bracket
		if _, err := decoder.Token(); err != nil && err != io.EOF {
			errCh <- eris.Wrap(err, "json: read closing token")
		}
	}()

	return outCh, errCh
}

// seekKey advances an object decoder past key and the '[' opening its value.
// Other members are skipped whole.
func seekKey(decoder *json.Decoder, key string) error {
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return eris.Wrap(err, "json: read object key")
		}
		name, _ := tok.(string)
		if name != key {
			var skip json.RawMessage
			if err := decoder.Decode(&skip); err != nil {
				return eris.Wrapf(err, "json: skip member %q", name)
			}
			continue
		}

		tok, err = decoder.Token()
		if err != nil {
			return eris.Wrapf(err, "json: read %q value", key)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return eris.Errorf("json: expected %q to be an array, got %v", key, tok)
		}
		return nil
	}
	return eris.Errorf("json: object has no %q array", key)
}
