package save

import (
	"bytes"
	"fmt"
)

// shortKeys are the property names written without quotes.
var shortKeys = map[string]bool{
	"b": true, "cb": true, "u": true, "cu": true,
	"c": true, "ta": true, "t": true, "ac": true, "acb": true, "asb": true, "bb": true,
	"i": true, "o": true, "n": true, "d": true, "a": true, "s": true, "p": true, "e": true,
}

// compact strips the quotes around known property names in minified JSON.
// String values are copied untouched.
func compact(js []byte) []byte {
	out := make([]byte, 0, len(js))
	for i := 0; i < len(js); {
		if js[i] != '"' {
			out = append(out, js[i])
			i++
			continue
		}
		end := stringEnd(js, i)
		if end < 0 {
			return append(out, js[i:]...)
		}
		key := js[i+1 : end]
		if end+1 < len(js) && js[end+1] == ':' && shortKeys[string(key)] {
			out = append(out, key...)
		} else {
			out = append(out, js[i:end+1]...)
		}
		i = end + 1
	}
	return out
}

// expand puts quotes back around bare property names so the text parses as
// JSON again. Any other bare word apart from the JSON literals is rejected.
func expand(text []byte) ([]byte, error) {
	out := make([]byte, 0, len(text)+len(text)/4)
	for i := 0; i < len(text); {
		ch := text[i]
		switch {
		case ch == '"':
			end := stringEnd(text, i)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			out = append(out, text[i:end+1]...)
			i = end + 1
		case ch == '-' || isDigit(ch):
			j := i + 1
			for j < len(text) && isNumberByte(text[j]) {
				j++
			}
			out = append(out, text[i:j]...)
			i = j
		case isLetter(ch):
			j := i + 1
			for j < len(text) && isLetter(text[j]) {
				j++
			}
			word := text[i:j]
			switch {
			case isLiteral(word):
				out = append(out, word...)
			case shortKeys[string(word)]:
				out = append(out, '"')
				out = append(out, word...)
				out = append(out, '"')
			default:
				return nil, fmt.Errorf("unknown key %q at offset %d", word, i)
			}
			i = j
		default:
			out = append(out, ch)
			i++
		}
	}
	return out, nil
}

// stringEnd returns the index of the quote closing the string that opens
// at start, or -1.
func stringEnd(b []byte, start int) int {
	for i := start + 1; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func isLiteral(w []byte) bool {
	return bytes.Equal(w, []byte("true")) || bytes.Equal(w, []byte("false")) || bytes.Equal(w, []byte("null"))
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isNumberByte(c byte) bool {
	return isDigit(c) || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-'
}
