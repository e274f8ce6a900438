package trie

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// terminalKey is the wire key of the terminal marker.
const terminalKey = "END"

// ErrInvalidName is returned by Encode for a name or label that is not valid
// UTF-8. JSON strings cannot carry such bytes, so writing them would replace
// them with U+FFFD and merge distinct entries on the next decode.
var ErrInvalidName = errors.New("name is not valid UTF-8")

// Encode writes n as a JSON object. Keys are written in insertion order with
// the terminal marker first.
func Encode(w io.Writer, n *Node) error {
	bw := bufio.NewWriter(w)
	if err := encodeNode(bw, n); err != nil {
		return err
	}
	return bw.Flush()
}

func encodeNode(w *bufio.Writer, n *Node) error {
	w.WriteByte('{')
	first := true
	if n.marked {
		if err := writeString(w, terminalKey); err != nil {
			return err
		}
		w.WriteString(":[")
		for i, name := range n.terminal {
			if i > 0 {
				w.WriteByte(',')
			}
			if err := writeString(w, name); err != nil {
				return err
			}
		}
		w.WriteByte(']')
		first = false
	}
	for _, l := range n.order {
		if !first {
			w.WriteByte(',')
		}
		first = false
		if err := writeString(w, l.Value); err != nil {
			return err
		}
		w.WriteByte(':')
		if err := encodeNode(w, n.children[l]); err != nil {
			return err
		}
	}
	return w.WriteByte('}')
}

func writeString(w *bufio.Writer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("encode %q: %w", s, ErrInvalidName)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode %q: %w", s, err)
	}
	_, err = w.Write(b)
	return err
}

// Decode reads one document from r. Child order follows the input order, and
// repeated keys merge into the same child.
func Decode(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	root := NewNode()
	if err := decodeObject(dec, root); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after document root")
	}
	return root, nil
}

func decodeObject(dec *json.Decoder, n *Node) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}

		if key == terminalKey {
			if err := decodeTerminal(dec, n); err != nil {
				return err
			}
			continue
		}

		label, err := parseLabel(key)
		if err != nil {
			return err
		}
		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("value of %q: %w", key, err)
		}
		if err := decodeObject(dec, n.Ensure(label)); err != nil {
			return err
		}
	}
	return expectDelim(dec, '}')
}

func decodeTerminal(dec *json.Decoder, n *Node) error {
	if err := expectDelim(dec, '['); err != nil {
		return fmt.Errorf("value of %q: %w", terminalKey, err)
	}
	n.MarkTerminal()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("terminal entry must be a string, got %v", tok)
		}
		n.AppendTerminal(name)
	}
	return expectDelim(dec, ']')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
