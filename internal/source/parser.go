// Package source normalizes raw purchase payloads and reads per-user history files.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/theirongolddev/nestegg/internal/model"
)

// ParseResult holds the output of parsing one history file.
type ParseResult struct {
	Records     []model.PurchaseRecord
	ParseErrors int
	Err         error
}

var errNotObject = errors.New("line is not a JSON object")

// maxLineSize bounds one history line. Longer lines are skipped.
const maxLineSize = 1024 * 1024

// ParseFile reads a JSONL history file, one purchase per line.
// Malformed and oversized lines are counted and skipped; the remaining records are
// returned in file order. A missing file yields an empty result with Err set.
func ParseFile(path string, userID int) ParseResult {
	f, err := os.Open(path) //nolint:gosec // history path is built from the data dir
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var res ParseResult

	r := bufio.NewReaderSize(f, 64*1024)
	var buf []byte
	oversized := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				res.ParseErrors++
			}
			break
		}
		if !oversized {
			if len(buf)+len(chunk) > maxLineSize {
				oversized = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if isPrefix {
			continue
		}
		if oversized {
			// Only the long line is lost; reading resumes at the next one.
			res.ParseErrors++
			oversized = false
			continue
		}

		line := bytes.TrimSpace(buf)
		buf = buf[:0]
		if len(line) == 0 {
			continue
		}
		rec, err := DecodeLine(line, userID)
		if err != nil {
			res.ParseErrors++
			continue
		}
		res.Records = append(res.Records, rec)
	}

	return res
}

// DecodeLine decodes one stored or raw purchase line.
func DecodeLine(line []byte, userID int) (model.PurchaseRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return model.PurchaseRecord{}, err
	}
	if raw == nil {
		return model.PurchaseRecord{}, errNotObject
	}
	return Normalize(raw, userID), nil
}

// EncodeLine renders a record as a single JSONL line without the newline.
func EncodeLine(r model.PurchaseRecord) ([]byte, error) {
	return json.Marshal(r)
}
