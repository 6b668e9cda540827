package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/animelib/catalog/internal/core"
)

// readInput loads an import request from path. YAML files are chosen by
// extension; anything else is JSON, either a bare array of records or a
// {"config", "records"} object.
func readInput(path string, stdin io.Reader, defaults core.ImportConfig, maxRecords int) (*core.ImportRequest, error) {
	in, err := openInput(path, stdin)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(in, defaults, maxRecords)
	}

	br := bufio.NewReader(in)
	first, err := firstByte(br)
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	if first == '[' {
		records, err := core.DecodeCandidates(br, maxRecords)
		if err != nil {
			return nil, err
		}
		return &core.ImportRequest{Config: defaults, Records: records}, nil
	}
	return core.DecodeImportRequest(br, defaults, maxRecords)
}

// firstByte returns the first byte after whitespace and a BOM without
// consuming it.
func firstByte(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.Discard(1)
			continue
		case 0xEF:
			if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
				_, _ = br.Discard(3)
				continue
			}
		}
		return b[0], nil
	}
}

// decodeYAML reads a YAML sequence of records, or a mapping with "config"
// and "records" keys, and converts every record to JSON.
func decodeYAML(r io.Reader, defaults core.ImportConfig, maxRecords int) (*core.ImportRequest, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode YAML"), core.ErrMalformedRequest)
	}

	req := &core.ImportRequest{Config: defaults, Records: core.Candidates{}}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		if cfg, ok := v["config"]; ok {
			raw, err := json.Marshal(jsonValue(cfg))
			if err != nil {
				return nil, errors.Wrap(err, "encode config")
			}
			if err := json.Unmarshal(raw, &req.Config); err != nil {
				return nil, errors.Mark(errors.Wrap(err, "decode config"), core.ErrMalformedRequest)
			}
		}
		recs, ok := v["records"].([]any)
		if !ok {
			return nil, errors.Mark(errors.New(`YAML mapping must carry a "records" sequence`), core.ErrMalformedRequest)
		}
		items = recs
	default:
		return nil, errors.Mark(errors.New("YAML input must be a sequence of records"), core.ErrMalformedRequest)
	}

	if maxRecords > 0 && len(items) > maxRecords {
		return nil, errors.Wrapf(core.ErrTooManyRecords, "%d records, at most %d allowed", len(items), maxRecords)
	}

	for i, item := range items {
		raw, err := json.Marshal(jsonValue(item))
		if err != nil {
			return nil, errors.Wrapf(err, "encode record %d", i)
		}
		req.Records = append(req.Records, raw)
	}
	return req, nil
}

// jsonValue rewrites YAML-decoded values into forms encoding/json accepts:
// maps with non-string keys get string keys and timestamps become dates.
func jsonValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[toString(k)] = jsonValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonValue(val)
		}
		return out
	case time.Time:
		return t.Format(time.DateOnly)
	default:
		return v
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, _ := json.Marshal(v)
	return string(raw)
}
