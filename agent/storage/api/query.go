// Package api has the helpers the spi/storage backends of the agent share:
// the tag query expression and a slice based iterator.
package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/spi/storage"
)

var ErrExpression = errors.New("invalid query expression")

// Query is a parsed tag query. All of the terms must match. A term with an
// empty value matches by the tag name only.
type Query []storage.Tag

// ParseQuery parses an expression like "threadId:abc&&role:holder".
func ParseQuery(expression string) (Query, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("%w: empty", ErrExpression)
	}
	terms := strings.Split(expression, "&&")
	q := make(Query, 0, len(terms))
	for _, term := range terms {
		name, value, _ := strings.Cut(strings.TrimSpace(term), ":")
		if name == "" {
			return nil, fmt.Errorf("%w: %q", ErrExpression, expression)
		}
		q = append(q, storage.Tag{Name: name, Value: value})
	}
	return q, nil
}

// Match tells if the tags satisfy every term of the query.
func (q Query) Match(tags []storage.Tag) bool {
	for _, term := range q {
		if !hasTag(tags, term) {
			return false
		}
	}
	return true
}

func hasTag(tags []storage.Tag, term storage.Tag) bool {
	for _, t := range tags {
		if t.Name == term.Name && (term.Value == "" || t.Value == term.Value) {
			return true
		}
	}
	return false
}

// Entry is one stored key value pair with its tags.
type Entry struct {
	Key   string        `cbor:"1,keyasint"`
	Value []byte        `cbor:"2,keyasint"`
	Tags  []storage.Tag `cbor:"3,keyasint"`
}

// Iterator iterates over entries collected beforehand.
type Iterator struct {
	entries []Entry
	pos     int
}

// NewIterator returns an iterator positioned before the first entry.
func NewIterator(entries []Entry) *Iterator {
	return &Iterator{entries: entries, pos: -1}
}

func (it *Iterator) Next() (bool, error) {
	if it.pos+1 >= len(it.entries) {
		it.pos = len(it.entries)
		return false, nil
	}
	it.pos++
	return true, nil
}

func (it *Iterator) current() (Entry, error) {
	if it.pos < 0 || it.pos >= len(it.entries) {
		return Entry{}, storage.ErrDataNotFound
	}
	return it.entries[it.pos], nil
}

func (it *Iterator) Key() (string, error) {
	e, err := it.current()
	return e.Key, err
}

func (it *Iterator) Value() ([]byte, error) {
	e, err := it.current()
	return e.Value, err
}

func (it *Iterator) Tags() ([]storage.Tag, error) {
	e, err := it.current()
	return e.Tags, err
}

func (it *Iterator) TotalItems() (int, error) {
	return len(it.entries), nil
}

func (it *Iterator) Close() error {
	it.entries = nil
	return nil
}

// CopyTags returns a copy of the tags so that callers cannot modify the
// stored ones.
func CopyTags(tags []storage.Tag) []storage.Tag {
	if tags == nil {
		return nil
	}
	return append([]storage.Tag{}, tags...)
}
