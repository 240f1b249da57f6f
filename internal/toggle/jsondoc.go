package toggle

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// jsonMember is one member of a JSON object, located by byte offsets.
type jsonMember struct {
	key        string
	keyStart   int
	valueStart int
	valueEnd   int
}

// jsonObject is a JSON object located by byte offsets. open and close are
// the offsets of its braces.
type jsonObject struct {
	open    int
	close   int
	members []jsonMember
}

func (o jsonObject) member(key string) (jsonMember, bool) {
	for _, m := range o.members {
		if m.key == key {
			return m, true
		}
	}
	return jsonMember{}, false
}

var errNotObject = errors.New("not a JSON object")

// parseRootObject locates the top-level object of a valid JSON document.
func parseRootObject(data []byte) (jsonObject, error) {
	if !json.Valid(data) {
		return jsonObject{}, errors.New("invalid JSON")
	}
	return parseObject(data, skipSpace(data, 0))
}

// parseObjectValue parses the value of m when it is an object.
func parseObjectValue(data []byte, m jsonMember) (jsonObject, error) {
	return parseObject(data, m.valueStart)
}

// parseObject reads the object starting at pos. data must be valid JSON.
func parseObject(data []byte, pos int) (jsonObject, error) {
	if pos >= len(data) || data[pos] != '{' {
		return jsonObject{}, errNotObject
	}
	obj := jsonObject{open: pos}
	pos = skipSpace(data, pos+1)
	if data[pos] == '}' {
		obj.close = pos
		return obj, nil
	}
	for {
		var m jsonMember
		m.keyStart = pos
		keyEnd, err := skipString(data, pos)
		if err != nil {
			return jsonObject{}, err
		}
		if err := json.Unmarshal(data[pos:keyEnd], &m.key); err != nil {
			return jsonObject{}, err
		}
		pos = skipSpace(data, keyEnd)
		if data[pos] != ':' {
			return jsonObject{}, fmt.Errorf("expected ':' at offset %d", pos)
		}
		m.valueStart = skipSpace(data, pos+1)
		m.valueEnd, err = skipValue(data, m.valueStart)
		if err != nil {
			return jsonObject{}, err
		}
		obj.members = append(obj.members, m)

		pos = skipSpace(data, m.valueEnd)
		switch data[pos] {
		case ',':
			pos = skipSpace(data, pos+1)
		case '}':
			obj.close = pos
			return obj, nil
		default:
			return jsonObject{}, fmt.Errorf("unexpected %q at offset %d", data[pos], pos)
		}
	}
}

func skipSpace(data []byte, pos int) int {
	for pos < len(data) {
		switch data[pos] {
		case ' ', '\t', '\n', '\r':
			pos++
		default:
			return pos
		}
	}
	return pos
}

// skipString returns the offset just past the string starting at pos.
func skipString(data []byte, pos int) (int, error) {
	if data[pos] != '"' {
		return 0, fmt.Errorf("expected string at offset %d", pos)
	}
	for i := pos + 1; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '"':
			return i + 1, nil
		}
	}
	return 0, errors.New("unterminated string")
}

// skipValue returns the offset just past the value starting at pos.
func skipValue(data []byte, pos int) (int, error) {
	switch data[pos] {
	case '"':
		return skipString(data, pos)
	case '{', '[':
		depth := 0
		for i := pos; i < len(data); i++ {
			switch data[i] {
			case '"':
				end, err := skipString(data, i)
				if err != nil {
					return 0, err
				}
				i = end - 1
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 0 {
					return i + 1, nil
				}
			}
		}
		return 0, errors.New("unterminated container")
	}
	i := pos
	for i < len(data) {
		switch data[i] {
		case ',', '}', ']', ' ', '\t', '\n', '\r':
			return i, nil
		}
		i++
	}
	return i, nil
}

// edit replaces data[start:end] with text.
type edit struct {
	start, end int
	text       string
}

// applyEdits applies non-overlapping edits to a copy of data.
func applyEdits(data []byte, edits ...edit) []byte {
	out := append([]byte(nil), data...)
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	// Back to front so earlier offsets stay valid.
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		out = append(out[:e.start], append([]byte(e.text), out[e.end:]...)...)
	}
	return out
}

// removeMember returns the edit that deletes m from obj along with one
// adjoining separator. The whitespace layout of the remaining members is
// kept.
func removeMember(obj jsonObject, m jsonMember) edit {
	idx := 0
	for i, other := range obj.members {
		if other.keyStart == m.keyStart {
			idx = i
		}
	}
	switch {
	case len(obj.members) == 1:
		return edit{start: obj.open + 1, end: obj.close}
	case idx < len(obj.members)-1:
		return edit{start: m.keyStart, end: obj.members[idx+1].keyStart}
	default:
		return edit{start: obj.members[idx-1].valueEnd, end: m.valueEnd}
	}
}

// memberIndent returns the whitespace preceding the last member of obj and
// the whitespace between its last value and closing brace.
func memberIndent(data []byte, obj jsonObject) (lead, trail string) {
	if len(obj.members) == 0 {
		return "", ""
	}
	last := obj.members[len(obj.members)-1]
	start := obj.open + 1
	if len(obj.members) > 1 {
		prev := obj.members[len(obj.members)-2]
		start = skipSpace(data, prev.valueEnd) + 1
	}
	return string(data[start:last.keyStart]), string(data[last.valueEnd:obj.close])
}

// appendMember returns the edit that adds text as the last member of obj.
// Indentation follows obj's existing members, or model's when obj is empty.
func appendMember(data []byte, obj jsonObject, text string, model jsonObject) edit {
	if len(obj.members) == 0 {
		lead, trail := memberIndent(data, model)
		return edit{start: obj.open + 1, end: obj.close, text: lead + text + trail}
	}
	lead, _ := memberIndent(data, obj)
	end := obj.members[len(obj.members)-1].valueEnd
	return edit{start: end, end: end, text: "," + lead + text}
}
