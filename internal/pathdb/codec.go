package pathdb

import (
	"fmt"
	"strings"
	"time"
)

// JoinPath builds the synthetic path for a logical file:
// dirName + "/" + fileName + "." + extension.
func JoinPath(dirName, fileName, extension string) string {
	return dirName + "/" + fileName + "." + extension
}

// SplitPath is the inverse of JoinPath: it breaks a synthetic path into
// directory, file name and extension. The extension is everything after the
// basename's last dot; a basename without a dot yields an empty extension.
func SplitPath(path string) (dirName, fileName, extension string) {
	fileName = path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		dirName = path[:i]
		fileName = path[i+1:]
	}
	if j := strings.LastIndexByte(fileName, '.'); j >= 0 {
		extension = fileName[j+1:]
		fileName = fileName[:j]
	}
	return dirName, fileName, extension
}

// Basename returns the final path segment of a synthetic path.
// Synthetic paths always use forward slashes, regardless of host OS.
func Basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// modTimeFormats are the textual timestamp layouts accepted from the backing
// store, tried in order.
var modTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// modTime converts an updated_at column value to a time. Drivers hand back
// time.Time for declared datetime columns, but raw strings, byte slices and
// epoch integers also occur depending on how the row was written.
func modTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case int64:
		return time.Unix(t, 0), nil
	case []byte:
		return parseModTime(string(t))
	case string:
		return parseModTime(t)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func parseModTime(s string) (time.Time, error) {
	for _, layout := range modTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// rowString returns a row value as a string, tolerating []byte columns.
func rowString(row Row, column string) string {
	switch v := row[column].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// rowInt64 returns a row value as an int64, tolerating the integer widths
// drivers hand back.
func rowInt64(row Row, column string) int64 {
	switch v := row[column].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
