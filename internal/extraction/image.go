package extraction

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURI is returned for photos that are not base64 image data URIs.
var ErrInvalidDataURI = errors.New("invalid image data URI")

// Image is a decoded receipt photo.
type Image struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI decodes "data:image/<kind>;base64,<payload>".
func ParseDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}

	params := strings.Split(meta, ";")
	mimeType := strings.ToLower(strings.TrimSpace(params[0]))
	if !strings.HasPrefix(mimeType, "image/") || len(mimeType) == len("image/") {
		return Image{}, fmt.Errorf("%w: MIME type %q is not an image", ErrInvalidDataURI, params[0])
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		return Image{}, fmt.Errorf("%w: payload is not base64", ErrInvalidDataURI)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some encoders drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty image", ErrInvalidDataURI)
	}

	return Image{MIMEType: mimeType, Data: data}, nil
}

// DataURI encodes the image back into a data URI.
func (img Image) DataURI() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
