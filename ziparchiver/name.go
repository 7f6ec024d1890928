package ziparchiver

import (
	"fmt"
	"strings"
	"time"
)

// Archive names embed their creation time to second granularity:
// <prefix>-YYYY-MM-DD-HH-MM-SS.zip. Lexicographic order matches
// chronological order, but callers compare parsed times instead of
// trusting remote formatting.
const nameTimeLayout = "2006-01-02-15-04-05"

const nameExt = ".zip"

func ArchiveName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s%s", prefix, t.UTC().Format(nameTimeLayout), nameExt)
}

// ParseArchiveName extracts the embedded creation time from a name produced
// by ArchiveName with the same prefix. Non-matching names return false.
func ParseArchiveName(prefix string, name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, prefix+"-")
	if !ok {
		return time.Time{}, false
	}
	stamp, ok := strings.CutSuffix(rest, nameExt)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(nameTimeLayout, stamp, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
