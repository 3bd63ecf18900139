// Package parser reads cards from markdown deck files.
//
// A card is a run of prefixed fields:
//
//	N: 12
//	Q: 안녕하세요
//	R: annyeonghaseyo
//	A: Hello
//	C: greetings
//
// Q starts a new card. Lines without a prefix continue the previous field and
// a line of "---" ends the current card.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/conorfennell/knolstudy/internal/domain"
)

type field int

const (
	none field = iota
	text
	reading
	transliteration
	translation
	tag
	ordinal
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"Q:", text},
	{"R:", reading},
	{"T:", transliteration},
	{"A:", translation},
	{"C:", tag},
	{"N:", ordinal},
}

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cards, err := Parse(file)
	if err != nil {
		return cards, fmt.Errorf("%s: %w", path, err)
	}
	return cards, nil
}

// Parse reads from an io.Reader and extracts all cards. Cards without text
// are skipped. Ordinal is zero when the card carries no N: line. On a
// malformed ordinal the cards parsed so far are returned with the error.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	var (
		cards   []domain.Card
		card    domain.Card
		block   []string
		current = none
		lineNo  int
		start   int
	)

	store := func() error {
		if current == none {
			return nil
		}
		content := strings.TrimRight(strings.Join(block, "\n"), "\n ")
		f := current
		block = nil
		current = none
		switch f {
		case text:
			card.Text = content
		case reading:
			card.Reading = content
		case transliteration:
			card.Transliteration = content
		case translation:
			card.Translation = content
		case tag:
			card.Tag = content
		case ordinal:
			n, err := strconv.Atoi(strings.TrimSpace(content))
			if err != nil || n < 0 {
				return fmt.Errorf("line %d: invalid ordinal %q", start, content)
			}
			card.Ordinal = n
		}
		return nil
	}

	finish := func() error {
		err := store()
		if card.Text != "" {
			cards = append(cards, card)
		}
		card = domain.Card{}
		return err
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNo++

		if strings.TrimSpace(line) == "---" {
			if err := finish(); err != nil {
				return cards, err
			}
			continue
		}

		f, rest, ok := matchPrefix(line)
		if !ok {
			if current != none {
				block = append(block, line)
			}
			continue
		}

		if err := store(); err != nil {
			return cards, err
		}
		// A second Q, or an N after content, begins the next card.
		if (f == text && card.Text != "") || (f == ordinal && card.Text != "") {
			if err := finish(); err != nil {
				return cards, err
			}
		}
		current = f
		start = lineNo
		block = append(block, rest)
	}

	if err := finish(); err != nil {
		return cards, err
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

func matchPrefix(line string) (field, string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.field, strings.TrimPrefix(rest, " "), true
		}
	}
	return none, "", false
}
