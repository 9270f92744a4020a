package lifecycle

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrMalformedPayload is returned when a notification payload does not have
// the expected shape.
var ErrMalformedPayload = errors.New("malformed payload")

// ParseUpdateInfo parses an update-found payload. The version field must be
// a non-empty string; other fields are ignored.
func ParseUpdateInfo(raw []byte) (UpdateInfo, error) {
	if !gjson.ValidBytes(raw) {
		return UpdateInfo{}, fmt.Errorf("%w: update info is not valid JSON", ErrMalformedPayload)
	}
	v := gjson.GetBytes(raw, "version")
	if v.Type != gjson.String || v.Str == "" {
		return UpdateInfo{}, fmt.Errorf("%w: update info has no version", ErrMalformedPayload)
	}
	return UpdateInfo{Version: v.Str}, nil
}

// ParseProgressInfo parses an update-progress payload. The percent field must
// be a number; its range is not checked.
func ParseProgressInfo(raw []byte) (ProgressInfo, error) {
	if !gjson.ValidBytes(raw) {
		return ProgressInfo{}, fmt.Errorf("%w: progress info is not valid JSON", ErrMalformedPayload)
	}
	v := gjson.GetBytes(raw, "percent")
	if v.Type != gjson.Number {
		return ProgressInfo{}, fmt.Errorf("%w: progress info has no percent", ErrMalformedPayload)
	}
	return ProgressInfo{Percent: v.Num}, nil
}
