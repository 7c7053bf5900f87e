package bank

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var requiredColumns = []string{"courseId", "id", "subType", "subDescript", "answer"}

const utf8BOM = "\ufeff"

// Load reads a CSV bank file. It never fails: a missing or unreadable file
// gives an empty bank and bad rows are skipped, with the reason logged.
func Load(path string, log logrus.FieldLogger) *Bank {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("bank", path)
	log.Info("loading question bank")

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Error("question bank file does not exist")
		} else {
			log.WithError(err).Error("question bank file cannot be opened")
		}
		return newBank()
	}
	defer file.Close()

	return LoadReader(file, path, log)
}

// LoadReader builds a bank from CSV content with a header row.
func LoadReader(r io.Reader, source string, log logrus.FieldLogger) *Bank {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("source", source)

	bank := newBank()
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			log.Warn("question bank is empty")
		} else {
			log.WithError(err).Error("failed to read question bank header")
		}
		return bank
	}
	columns := headerIndex(header)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.WithError(err).Warn("skipping unreadable row")
				continue
			}
			log.WithError(err).Error("stopped reading question bank")
			break
		}

		line, _ := reader.FieldPos(0)
		question, err := ParseRow(rowValues(columns, record))
		if err != nil {
			rowErr := &RowError{Line: line, Err: err}
			entry := log.WithField("line", line).WithError(rowErr)
			if errors.Is(err, ErrUnsupportedKind) {
				entry.Warn("skipping question of unsupported type")
			} else {
				entry.Warn("skipping invalid row")
			}
			continue
		}

		bank.add(question)
		log.WithFields(logrus.Fields{"id": question.ID, "line": line}).Debug("added question")
	}

	log.WithField("questions", bank.Size()).Info("question bank loaded")
	return bank
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		if idx == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		if _, exists := columns[name]; !exists {
			columns[name] = idx
		}
	}
	return columns
}

func rowValues(columns map[string]int, record []string) map[string]string {
	row := make(map[string]string, len(columns))
	for name, idx := range columns {
		if idx < len(record) {
			row[name] = record[idx]
		}
	}
	return row
}

// ParseRow converts one header-keyed row into a Question. Errors wrap
// ErrMissingField, ErrUnsupportedKind or ErrMalformedRow.
func ParseRow(row map[string]string) (Question, error) {
	for _, key := range requiredColumns {
		if strings.TrimSpace(row[key]) == "" {
			return Question{}, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}

	kind := KindFromSubType(row["subType"])
	if kind != KindSingleChoice {
		return Question{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, row["subType"])
	}
	return parseSingleChoice(row)
}

func parseSingleChoice(row map[string]string) (Question, error) {
	courseID, err := strconv.Atoi(strings.TrimSpace(row["courseId"]))
	if err != nil {
		return Question{}, fmt.Errorf("%w: invalid courseId %q", ErrMalformedRow, row["courseId"])
	}
	id, err := strconv.Atoi(strings.TrimSpace(row["id"]))
	if err != nil {
		return Question{}, fmt.Errorf("%w: invalid id %q", ErrMalformedRow, row["id"])
	}
	optionCount, err := strconv.Atoi(strings.TrimSpace(row["optionCount"]))
	if err != nil || optionCount < 0 {
		return Question{}, fmt.Errorf("%w: invalid optionCount %q", ErrMalformedRow, row["optionCount"])
	}
	if optionCount > len(row) {
		return Question{}, fmt.Errorf("%w: optionCount %d exceeds the %d columns", ErrMalformedRow, optionCount, len(row))
	}

	options := make([]string, 0, optionCount)
	for idx := 0; idx < optionCount; idx++ {
		option := row["option"+strconv.Itoa(idx)]
		if strings.TrimSpace(option) == "" {
			continue
		}
		options = append(options, option)
	}

	if len(options) == 0 {
		return Question{}, fmt.Errorf("%w: no options", ErrMalformedRow)
	}
	if len(options) != optionCount {
		return Question{}, fmt.Errorf("%w: found %d options, optionCount is %d", ErrMalformedRow, len(options), optionCount)
	}

	return Question{
		Description: row["subDescript"],
		ID:          id,
		Kind:        KindSingleChoice,
		CourseID:    courseID,
		OptionCount: optionCount,
		Answer:      row["answer"],
		Options:     options,
	}, nil
}
