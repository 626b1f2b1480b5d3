package symbol

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultDelete is the reserved token produced by the delete gesture.
const DefaultDelete = "[DEL]"

// DefaultCalculatorAlphabet lists every character accepted in calculator mode.
const DefaultCalculatorAlphabet = "0123456789+-*/.()="

// ErrEmptyTable is returned when a label table defines no labels.
var ErrEmptyTable = errors.New("label table is empty")

// Table maps classifier output indices to symbols.
type Table struct {
	symbols map[int]string
}

// DefaultTable returns the built-in 28 entry table: nine words, the delete
// sentinel, ten digits and eight calculator symbols.
func DefaultTable() *Table {
	return &Table{symbols: map[int]string{
		0: "HELLO", 1: "YES", 2: "NO", 3: "PLEASE", 4: "THANK YOU",
		5: "BYE", 6: "I", 7: "YOU", 8: "LOVE", 9: DefaultDelete,
		10: "0", 11: "1", 12: "2", 13: "3", 14: "4",
		15: "5", 16: "6", 17: "7", 18: "8", 19: "9",
		20: "+", 21: "-", 22: "*", 23: "/", 24: "=", 25: ".",
		26: "(", 27: ")",
	}}
}

// NewTable builds a table from an index to symbol map.
// Blank symbols and negative indices are rejected.
func NewTable(symbols map[int]string) (*Table, error) {
	if len(symbols) == 0 {
		return nil, ErrEmptyTable
	}

	t := &Table{symbols: make(map[int]string, len(symbols))}
	for idx, sym := range symbols {
		if idx < 0 {
			return nil, fmt.Errorf("label index %d is negative", idx)
		}
		sym = strings.TrimSpace(sym)
		if sym == "" {
			return nil, fmt.Errorf("label %d has an empty symbol", idx)
		}
		t.symbols[idx] = sym
	}
	return t, nil
}

// tableFile is the on-disk YAML layout of a label table.
type tableFile struct {
	Labels map[int]string `yaml:"labels"`
}

// LoadTable reads a label table from a YAML file of the form:
//
//	labels:
//	  0: HELLO
//	  1: YES
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML label table.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode label table: %w", err)
	}
	return NewTable(f.Labels)
}

// Lookup returns the symbol for a classifier index.
// The second result is false for indices outside the table.
func (t *Table) Lookup(index int) (string, bool) {
	if t == nil {
		return "", false
	}
	sym, ok := t.symbols[index]
	return sym, ok
}

// Len returns the number of labels.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.symbols)
}

// Entry is one row of a label table.
type Entry struct {
	Index  int    `json:"index"`
	Symbol string `json:"symbol"`
}

// Entries returns the table rows ordered by index.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	entries := make([]Entry, 0, len(t.symbols))
	for idx, sym := range t.symbols {
		entries = append(entries, Entry{Index: idx, Symbol: sym})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Index < entries[j].Index
	})
	return entries
}
