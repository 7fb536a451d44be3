package receipts

import (
	"fmt"
	"path"
	"strings"
	"time"
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
	"image/heif": "heif",
	"image/gif":  "gif",
}

// ObjectName builds receipts/<user>/<yyyy>/<mm>/<dd>/<id>.<ext>. The date is taken in UTC.
func ObjectName(userID string, at time.Time, id, mimeType string) string {
	ext, ok := extensions[strings.ToLower(mimeType)]
	if !ok {
		ext = "img"
	}
	user := strings.ReplaceAll(userID, "/", "_")
	if user == "" {
		user = "anonymous"
	}
	return fmt.Sprintf("receipts/%s/%s/%s.%s", user, at.UTC().Format("2006/01/02"), id, ext)
}

// MIMETypeFromName guesses the image type from an object's extension.
func MIMETypeFromName(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	for mimeType, e := range extensions {
		if e == ext && mimeType != "image/jpg" {
			return mimeType
		}
	}
	return "image/jpeg"
}

// FormatGCSURI returns gs://bucket/object.
func FormatGCSURI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	trimmed, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
