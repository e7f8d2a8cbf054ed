package pdfdoc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// ErrLayout means a document does not have the classic xref table layout
// pdfcpu writes with object and xref streams disabled.
var ErrLayout = errors.New("unexpected pdf layout")

var (
	trailerID  = regexp.MustCompile(`/ID\s*\[\s*<[0-9A-Fa-f]*>\s*<[0-9A-Fa-f]*>\s*\]`)
	modDate    = regexp.MustCompile(`/ModDate\s*\(D:\d{14}`)
	startXRef  = regexp.MustCompile(`startxref\s+(\d+)\s+%%EOF\s*$`)
	objectHead = regexp.MustCompile(`^(\d+)\s+\d+\s+obj\b`)
)

type xrefEntry struct {
	num    int
	offset int
	gen    string
	inUse  bool
}

type xrefSection struct {
	start   int
	entries []xrefEntry
}

// Normalize rewrites a pdfcpu document so its bytes depend only on its
// objects: objects are laid out by ascending number and the xref table is
// rebuilt to match. pdfcpu emits objects in dictionary iteration order, so
// two writes of the same document can otherwise differ. The file ID and
// modification time are then pinned to values derived from inputs.
func Normalize(doc []byte, inputs ...[]byte) ([]byte, error) {
	m := startXRef.FindSubmatchIndex(doc)
	if m == nil {
		return nil, fmt.Errorf("%w: no startxref", ErrLayout)
	}
	startXRefAt := m[0]
	xrefAt, err := strconv.Atoi(string(doc[m[2]:m[3]]))
	if err != nil || xrefAt >= startXRefAt || !bytes.HasPrefix(doc[xrefAt:], []byte("xref")) {
		return nil, fmt.Errorf("%w: startxref does not point at an xref table", ErrLayout)
	}
	trailerAt := bytes.Index(doc[xrefAt:startXRefAt], []byte("trailer"))
	if trailerAt < 0 {
		return nil, fmt.Errorf("%w: no trailer", ErrLayout)
	}
	trailerAt += xrefAt

	sections, err := parseXRef(doc[xrefAt+len("xref") : trailerAt])
	if err != nil {
		return nil, err
	}

	var used []xrefEntry
	for _, s := range sections {
		for _, e := range s.entries {
			// pdfcpu lists unwritten objects as in use at offset 0.
			if e.inUse && e.offset > 0 {
				used = append(used, e)
			}
		}
	}
	if len(used) == 0 {
		return nil, fmt.Errorf("%w: no objects", ErrLayout)
	}

	// Each object runs from its offset to the next object in file order.
	byOffset := append([]xrefEntry(nil), used...)
	sort.Slice(byOffset, func(i, j int) bool { return byOffset[i].offset < byOffset[j].offset })
	bodies := make(map[int][]byte, len(used))
	for i, e := range byOffset {
		end := xrefAt
		if i+1 < len(byOffset) {
			end = byOffset[i+1].offset
		}
		if e.offset >= end {
			return nil, fmt.Errorf("%w: object %d overlaps its neighbour", ErrLayout, e.num)
		}
		body := doc[e.offset:end]
		head := objectHead.FindSubmatch(body)
		if head == nil || string(head[1]) != strconv.Itoa(e.num) {
			return nil, fmt.Errorf("%w: xref entry %d does not point at its object", ErrLayout, e.num)
		}
		bodies[e.num] = body
	}

	out := bytes.NewBuffer(make([]byte, 0, len(doc)))
	out.Write(doc[:byOffset[0].offset])

	sort.Slice(used, func(i, j int) bool { return used[i].num < used[j].num })
	offsets := make(map[int]int, len(used))
	for _, e := range used {
		offsets[e.num] = out.Len()
		out.Write(bodies[e.num])
	}

	newXRefAt := out.Len()
	out.WriteString("xref\n")
	for _, s := range sections {
		fmt.Fprintf(out, "%d %d\n", s.start, len(s.entries))
		for _, e := range s.entries {
			if e.inUse {
				fmt.Fprintf(out, "%010d %s n \n", offsets[e.num], e.gen)
			} else {
				fmt.Fprintf(out, "%010d %s f \n", e.offset, e.gen)
			}
		}
	}
	out.Write(doc[trailerAt:startXRefAt])
	fmt.Fprintf(out, "startxref\n%d\n%%%%EOF\n", newXRefAt)

	return Pin(out.Bytes(), inputs...), nil
}

// parseXRef reads the subsections of a classic xref table.
func parseXRef(table []byte) ([]xrefSection, error) {
	fields := bytes.Fields(table)
	var sections []xrefSection
	for i := 0; i < len(fields); {
		if i+2 > len(fields) {
			return nil, fmt.Errorf("%w: truncated xref subsection", ErrLayout)
		}
		start, err1 := strconv.Atoi(string(fields[i]))
		count, err2 := strconv.Atoi(string(fields[i+1]))
		if err1 != nil || err2 != nil || count < 0 {
			return nil, fmt.Errorf("%w: bad xref subsection header", ErrLayout)
		}
		i += 2
		if i+3*count > len(fields) {
			return nil, fmt.Errorf("%w: truncated xref subsection", ErrLayout)
		}
		s := xrefSection{start: start}
		for j := 0; j < count; j++ {
			off, err := strconv.Atoi(string(fields[i]))
			if err != nil {
				return nil, fmt.Errorf("%w: bad xref offset %q", ErrLayout, fields[i])
			}
			kind := string(fields[i+2])
			if kind != "n" && kind != "f" {
				return nil, fmt.Errorf("%w: bad xref entry type %q", ErrLayout, kind)
			}
			s.entries = append(s.entries, xrefEntry{
				num:    start + j,
				offset: off,
				gen:    string(fields[i+1]),
				inUse:  kind == "n",
			})
			i += 3
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// Pin replaces the values pdfcpu stamps on every write, the file ID and the
// modification time, with ones derived from inputs. Replacements keep their
// length so xref offsets stay valid.
func Pin(doc []byte, inputs ...[]byte) []byte {
	h := sha256.New()
	for _, p := range inputs {
		h.Write(p)
	}
	digest := hex.EncodeToString(h.Sum(nil))

	doc = trailerID.ReplaceAllFunc(doc, func(m []byte) []byte {
		out := bytes.Clone(m)
		inHex, j := false, 0
		for i, c := range out {
			switch {
			case c == '<':
				inHex = true
			case c == '>':
				inHex = false
			case inHex:
				out[i] = digest[j%len(digest)]
				j++
			}
		}
		return out
	})
	return modDate.ReplaceAllFunc(doc, func(m []byte) []byte {
		out := bytes.Clone(m)
		copy(out[len(out)-14:], "20000101000000")
		return out
	})
}
