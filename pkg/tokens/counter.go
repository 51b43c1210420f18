// Package tokens estimates how many tokens a chat fine-tuning corpus will
// consume under each supported tokenizer encoding.
package tokens

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fayazkhan121/OpenAi-fine-tuning/pkg/apperr"
)

// MaxLineSize bounds a single JSONL record.
const MaxLineSize = 16 * 1024 * 1024

// Message is one chat turn of a training record.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Record is one line of a training file.
type Record struct {
	Messages []Message `json:"messages"`
}

// wire shapes keep presence information so absent fields can be told apart
// from empty ones.
type wireMessage struct {
	Role    string           `json:"role"`
	Content *json.RawMessage `json:"content"`
}

type wireRecord struct {
	Messages *[]wireMessage `json:"messages"`
}

// CountFile counts the tokens of every message in the JSONL file at path.
// On error the partial tally is discarded and nil is returned.
func CountFile(path string, enc Encoder) (Tally, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &apperr.FileAccessError{Path: path, Err: err}
	}
	defer f.Close()

	return count(f, path, enc)
}

// Count is CountFile over an arbitrary reader.
func Count(r io.Reader, enc Encoder) (Tally, error) {
	return count(r, "", enc)
}

func count(r io.Reader, source string, enc Encoder) (Tally, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineSize)

	tally := NewTally()
	line := 0
	// Blank lines are only tolerated at the end of the input.
	blank := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			if blank == 0 {
				blank = line
			}
			continue
		}
		if blank != 0 {
			return nil, &apperr.ParseError{Path: source, Line: blank, Err: errors.New("empty line")}
		}

		rec, err := ParseRecord(raw)
		if err != nil {
			return nil, locate(err, source, line)
		}
		tally.Merge(CountRecord(rec, enc))
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &apperr.ParseError{Path: source, Line: line + 1, Err: fmt.Errorf("line exceeds %d bytes", MaxLineSize)}
		}
		return nil, &apperr.FileAccessError{Path: source, Err: err}
	}

	return tally, nil
}

// ParseRecord decodes and validates one training record. Errors carry no
// location; callers fill it in.
func ParseRecord(raw []byte) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "record"
			}
			return Record{}, &apperr.SchemaError{Field: field, Reason: "has wrong type " + typeErr.Value}
		}
		return Record{}, &apperr.ParseError{Err: err}
	}
	if w.Messages == nil {
		return Record{}, &apperr.SchemaError{Field: "messages"}
	}

	rec := Record{Messages: make([]Message, 0, len(*w.Messages))}
	for i, m := range *w.Messages {
		field := fmt.Sprintf("messages[%d].content", i)
		if m.Content == nil {
			return Record{}, &apperr.SchemaError{Field: field}
		}
		var content string
		if err := json.Unmarshal(*m.Content, &content); err != nil {
			return Record{}, &apperr.SchemaError{Field: field, Reason: "must be a string"}
		}
		rec.Messages = append(rec.Messages, Message{Role: m.Role, Content: content})
	}
	return rec, nil
}

// CountRecord returns the per-scheme token count of a single record.
func CountRecord(rec Record, enc Encoder) Tally {
	tally := NewTally()
	for _, m := range rec.Messages {
		for _, s := range schemes {
			tally[s] += enc.Count(s, m.Content)
		}
	}
	return tally
}

func locate(err error, source string, line int) error {
	var parseErr *apperr.ParseError
	if errors.As(err, &parseErr) {
		parseErr.Path, parseErr.Line = source, line
		return parseErr
	}
	var schemaErr *apperr.SchemaError
	if errors.As(err, &schemaErr) {
		schemaErr.Source, schemaErr.Line = source, line
		if schemaErr.Source == "" {
			schemaErr.Source = "input"
		}
		return schemaErr
	}
	return err
}
