// Package pagination implements the opaque feed cursor. A cursor pins the
// upper created_at bound of the merged feed plus the next offset, so a
// client paging forward sees a frozen dataset even while new items arrive.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const cursorSeparator = ","
const timeFormat = time.RFC3339Nano // Use nano for precision

// EncodeCursor creates an opaque cursor string from the pinned upper bound
// and the next page offset.
func EncodeCursor(before time.Time, offset int) string {
	key := fmt.Sprintf("%s%s%d", before.UTC().Format(timeFormat), cursorSeparator, offset)
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor parses the opaque cursor string back into its bound and offset.
func DecodeCursor(encodedCursor string) (time.Time, int, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(encodedCursor)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	key := string(decodedBytes)
	parts := strings.SplitN(key, cursorSeparator, 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid cursor format")
	}

	before, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid timestamp in cursor: %w", err)
	}

	offset, err := strconv.Atoi(parts[1])
	if err != nil || offset < 0 {
		return time.Time{}, 0, fmt.Errorf("invalid offset in cursor")
	}

	return before.UTC(), offset, nil
}
