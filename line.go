package pop3appid

import "github.com/pkg/errors"

// LineResult is the three-way outcome of scanning for one CRLF-
// terminated line (§4.2), a deliberate improvement over the original
// detector's two-way pop3_check_line: a payload split at an arbitrary
// packet boundary must be reported as Incomplete rather than
// malformed, so a caller can buffer and retry instead of desyncing.
type LineResult int

const (
	// LineTerminated means data[:n] (excluding the trailing CRLF) is a
	// complete, printable-ASCII line, and the CRLF occupies
	// data[n:n+2].
	LineTerminated LineResult = iota

	// LineIncomplete means no CRLF was found before the end of data,
	// and every byte examined so far was a legal line byte; the caller
	// should wait for more data.
	LineIncomplete
)

// scanLine scans data from the start for exactly one printable-ASCII,
// CRLF-terminated line.
//
// It returns (n, LineTerminated, nil) when data[:n] is a complete line
// and the terminating CRLF sits at data[n:n+2]. It returns (len(data),
// LineIncomplete, nil) when every byte seen so far is legal but no CRLF
// has been found yet, including when data ends in a lone CR with no
// following byte yet — that is still "end of input reached before
// CRLF", not a malformed line, so a call that happens to split a
// payload right after the CR stays idempotent with the unsplit call
// (§8 P7). It returns (_, _, ErrMalformedLine) as soon as it sees a
// byte that can never be part of a valid line: anything below 0x20
// other than CR, anything at or above 0x7f, or a CR immediately
// followed by a byte that isn't LF.
func scanLine(data []byte) (int, LineResult, error) {
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '\r':
			if i+1 >= len(data) {
				return len(data), LineIncomplete, nil
			}
			if data[i+1] != '\n' {
				return 0, 0, errors.Wrapf(ErrMalformedLine, "CR not followed by LF at offset %d", i)
			}
			return i, LineTerminated, nil
		case c == '\n':
			return 0, 0, errors.Wrapf(ErrMalformedLine, "bare LF at offset %d", i)
		case c < 0x20 || c >= 0x7f:
			return 0, 0, errors.Wrapf(ErrMalformedLine, "illegal byte 0x%02x at offset %d", c, i)
		}
	}
	return len(data), LineIncomplete, nil
}
