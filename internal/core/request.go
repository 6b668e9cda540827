package core

// request.go decodes import request bodies.
//
// Bodies are read token by token so an oversized batch is rejected as soon
// as its records array passes the cap, without buffering the rest. A UTF-8
// BOM, which some Windows editors prepend to saved JSON files, is skipped.

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ImportRequest is the body of an import or preview call.
type ImportRequest struct {
	Config  ImportConfig `json:"config"`
	Records Candidates   `json:"records"`
}

func newBodyDecoder(r io.Reader) *json.Decoder {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return json.NewDecoder(br)
}

func malformedRequest(err error, format string, args ...any) error {
	if err == nil {
		return errors.Wrapf(ErrMalformedRequest, format, args...)
	}
	return errors.Wrapf(errors.Mark(err, ErrMalformedRequest), format, args...)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return malformedRequest(err, "expected %q", want)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return malformedRequest(nil, "expected %q, found %v", want, tok)
	}
	return nil
}

// DecodeImportRequest reads {"config": {...}, "records": [...]} from r.
// Config fields the body omits keep their value from defaults; unknown
// top-level fields are ignored. maxRecords of zero disables the cap.
func DecodeImportRequest(r io.Reader, defaults ImportConfig, maxRecords int) (*ImportRequest, error) {
	dec := newBodyDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	req := &ImportRequest{Config: defaults}
	haveRecords := false

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformedRequest(err, "read field name")
		}
		switch tok {
		case "config":
			if err := dec.Decode(&req.Config); err != nil {
				return nil, malformedRequest(err, "decode config")
			}
		case "records":
			recs, err := decodeArray(dec, maxRecords)
			if err != nil {
				return nil, err
			}
			req.Records = recs
			haveRecords = true
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, malformedRequest(err, "decode field %v", tok)
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	if !haveRecords {
		return nil, errors.WithHint(
			malformedRequest(nil, "missing records"),
			`the body must carry a "records" array`,
		)
	}
	return req, nil
}

// DecodeCandidates reads a bare JSON array of records from r.
func DecodeCandidates(r io.Reader, maxRecords int) (Candidates, error) {
	dec := newBodyDecoder(r)
	recs, err := decodeArray(dec, maxRecords)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformedRequest(nil, "unexpected data after records array")
	}
	return recs, nil
}

func decodeArray(dec *json.Decoder, maxRecords int) (Candidates, error) {
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	recs := Candidates{}
	for dec.More() {
		if maxRecords > 0 && len(recs) >= maxRecords {
			return nil, errors.WithHintf(
				errors.Wrapf(ErrTooManyRecords, "more than %d records", maxRecords),
				"split the batch into chunks of at most %d records", maxRecords,
			)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, malformedRequest(err, "decode record %d", len(recs))
		}
		recs = append(recs, raw)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return recs, nil
}
