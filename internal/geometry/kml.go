package geometry

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/paulmach/orb"
)

var (
	ErrNoCoordinates     = errors.New("no <coordinates> tag found in KML")
	ErrEmptyCoordinates  = errors.New("the <coordinates> tag is empty")
	ErrTooFewPoints      = errors.New("a polygon needs at least 3 points")
	ErrInvalidCoordinate = errors.New("invalid coordinate tuple")
)

var coordinatesTag = regexp.MustCompile(`(?s)<coordinates>(.*?)</coordinates>`)

// ParseKML returns the ring described by the first <coordinates> block of a
// KML document. Tuples are "lon,lat[,alt]"; altitude is dropped.
func ParseKML(text string) (orb.Ring, error) {
	var body string
	if m := coordinatesTag.FindStringSubmatch(text); m != nil {
		body = m[1]
	} else {
		var err error
		body, err = findCoordinatesElement(text)
		if err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyCoordinates
	}

	var ring orb.Ring
	for _, tuple := range strings.Fields(body) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err := parseCoordinate(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrInvalidCoordinate, tuple)
		}
		lat, err := parseCoordinate(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrInvalidCoordinate, tuple)
		}
		ring = append(ring, orb.Point{lon, lat})
	}

	if len(ring) < 3 {
		return nil, fmt.Errorf("%w: found only %d", ErrTooFewPoints, len(ring))
	}
	return ring, nil
}

// findCoordinatesElement walks the document looking for the first element
// whose local name is "coordinates", whatever its namespace or prefix.
func findCoordinatesElement(text string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", ErrNoCoordinates
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoCoordinates, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "coordinates" {
			continue
		}

		var body string
		if err := dec.DecodeElement(&body, &start); err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoCoordinates, err)
		}
		return body, nil
	}
}
