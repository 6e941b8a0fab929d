package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// SetFromWKT parses a minimal well-known-text representation into s,
// replacing its vertex list and recomputing its MBR (spec.md §4.6
// "set-from-well-known-text"). Only the subset of WKT this system's four
// Shape variants need is supported:
//
//	POINT(x y)
//	LINESTRING(x0 y0, x1 y1, ...)
//	POLYGON((x0 y0, x1 y1, ..., x0 y0))        -- outer ring only
//	BOX(x0 y0, x1 y1)                          -- this system's Rectangle
//
// Anything else is reported as an error rather than silently misparsed.
func (s *Shape) SetFromWKT(text string) error {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open < 0 || !strings.HasSuffix(text, ")") {
		return fmt.Errorf("geometry: malformed WKT %q", text)
	}
	tag := strings.ToUpper(strings.TrimSpace(text[:open]))
	body := text[open+1 : len(text)-1]

	var wantType DataType
	switch tag {
	case "POINT":
		wantType = Point
	case "LINESTRING":
		wantType = LineString
	case "POLYGON":
		wantType = Polygon
		body = strings.TrimSpace(body)
		if strings.HasPrefix(body, "(") && strings.HasSuffix(body, ")") {
			body = body[1 : len(body)-1]
		}
	case "BOX":
		wantType = Rectangle
	default:
		return fmt.Errorf("geometry: unsupported WKT tag %q", tag)
	}
	if wantType != s.DataType {
		return fmt.Errorf("geometry: WKT tag %q does not match shape variant %s", tag, s.DataType)
	}

	verts, err := parseCoordList(body)
	if err != nil {
		return err
	}
	s.Vertices = s.Vertices[:0]
	for _, v := range verts {
		if err := s.AppendVertex(v); err != nil {
			return err
		}
	}
	return nil
}

func parseCoordList(body string) ([]Vertex, error) {
	parts := strings.Split(body, ",")
	verts := make([]Vertex, 0, len(parts))
	for _, p := range parts {
		fields := strings.Fields(strings.TrimSpace(p))
		if len(fields) != 2 {
			return nil, fmt.Errorf("geometry: malformed WKT coordinate %q", p)
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("geometry: malformed WKT x coordinate %q: %w", fields[0], err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("geometry: malformed WKT y coordinate %q: %w", fields[1], err)
		}
		verts = append(verts, Vertex{X: x, Y: y})
	}
	return verts, nil
}
