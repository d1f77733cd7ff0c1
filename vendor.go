package pop3appid

import "strings"

// extractVendor scans one successful greeting line (the full "+OK ..."
// text, CRLF already stripped) for a known vendor marker, returning the
// vendor name, an optional version string, and zero or more Subtypes
// (§4.4.1). It returns vendor == "" when no marker is recognized.
//
// Markers, priority, and delimiters are transcribed from the original
// detector's greeting scan, which spec.md left unspecified beyond
// naming the four vendors: cppop, Cubic Circle, InterMail, and
// Post.Office.
func extractVendor(line string) (vendor, version string, subtypes []Subtype) {
	if i := strings.Index(line, "cppop"); i >= 0 {
		vendor = "cppop"
		rest := line[i+len("cppop"):]
		if strings.HasPrefix(rest, " ") {
			if end := strings.IndexByte(rest[1:], ']'); end >= 0 {
				version = rest[1 : 1+end]
			}
		}
		return vendor, version, nil
	}

	if i := strings.Index(line, "Cubic Circle"); i >= 0 {
		vendor = "Cubic Circle"
		rest := line[i+len("Cubic Circle"):]
		if strings.HasPrefix(rest, "'s v") {
			rest = rest[len("'s v"):]
			if end := strings.IndexByte(rest, ' '); end >= 0 {
				version = rest[:end]
			}
		}
		return vendor, version, nil
	}

	if strings.Contains(line, "InterMail") {
		return "InterMail", "", nil
	}

	if i := strings.Index(line, "Post.Office"); i >= 0 {
		vendor = "Post.Office"
		rest := line[i+len("Post.Office"):]
		if !strings.HasPrefix(rest, " v") {
			return vendor, "", nil
		}
		verStart := i + len("Post.Office") + len(" v")
		rest = line[verStart:]
		verEnd := strings.IndexByte(rest, ' ')
		if verEnd < 0 {
			return vendor, "", nil
		}
		// verEnd bounds the version token for now; it is pushed out to
		// cover the release number too, below, when a release marker
		// follows — the original detector copies the whole raw span
		// (including the " release " text) into the version buffer.
		versionEnd := verStart + verEnd
		rest = line[versionEnd:]

		const releaseMarker = " release "
		if !strings.HasPrefix(rest, releaseMarker) {
			return vendor, line[verStart:versionEnd], nil
		}
		relStart := versionEnd + len(releaseMarker)
		rest = line[relStart:]
		relEnd := strings.IndexByte(rest, ' ')
		releaseEnd := len(line)
		if relEnd >= 0 {
			releaseEnd = relStart + relEnd
		}
		if releaseEnd == relStart {
			return vendor, line[verStart:versionEnd], nil
		}
		version = line[verStart:releaseEnd]
		if relEnd < 0 {
			return vendor, version, nil
		}

		const withMarker = " with "
		rest = line[releaseEnd:]
		if !strings.HasPrefix(rest, withMarker) {
			return vendor, version, nil
		}
		nameStart := releaseEnd + len(withMarker)
		rest = line[nameStart:]
		nameEnd := strings.IndexByte(rest, ' ')
		if nameEnd == 0 {
			return vendor, version, nil
		}
		nameEndAbs := len(line)
		if nameEnd > 0 {
			nameEndAbs = nameStart + nameEnd
		}
		sub := Subtype{Service: line[nameStart:nameEndAbs]}

		const versionMarker = " version "
		if nameEnd > 0 {
			rest = line[nameEndAbs:]
			if strings.HasPrefix(rest, versionMarker) {
				subVerStart := nameEndAbs + len(versionMarker)
				subVerRest := line[subVerStart:]
				subVerEnd := strings.IndexByte(subVerRest, ' ')
				if subVerEnd != 0 {
					subVerEndAbs := len(line)
					if subVerEnd > 0 {
						subVerEndAbs = subVerStart + subVerEnd
					}
					sub.Version = line[subVerStart:subVerEndAbs]
				}
			}
		}
		return vendor, version, []Subtype{sub}
	}

	return "", "", nil
}
