package pop3appid

import "errors"

// ErrMalformedLine is returned by the line scanner when a non-printable
// byte appears before a terminating CRLF, or when a CR is not followed
// by LF.
var ErrMalformedLine = errors.New("pop3appid: malformed line")

// ErrMalformedResponse is returned by the server parser when the bytes
// at the start of a RESPONSE sub-state do not begin with "+OK", "-ERR",
// or the "+ " continuation prefix.
var ErrMalformedResponse = errors.New("pop3appid: malformed server response")
