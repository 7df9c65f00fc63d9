package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/vincent-petithory/dataurl"
)

// DataURI is an image encoded as "data:<mime>;base64,<data>".
type DataURI string

// NewDataURI encodes raw bytes. An empty mimeType is sniffed from the data.
func NewDataURI(data []byte, mimeType string) DataURI {
	if mimeType == "" {
		return DataURI(dataurl.EncodeBytes(data))
	}
	return DataURI(dataurl.New(data, mimeType).String())
}

// Decode returns the content type and decoded payload.
func (d DataURI) Decode() (string, []byte, error) {
	if strings.TrimSpace(string(d)) == "" {
		return "", nil, ErrNoImage
	}
	u, err := dataurl.DecodeString(string(d))
	if err != nil {
		return "", nil, goerr.Wrap(ErrInvalidDataURI, "failed to decode data URI", goerr.V("error", err.Error()))
	}
	if len(u.Data) == 0 {
		return "", nil, goerr.Wrap(ErrNoImage, "data URI has no payload")
	}
	return u.MediaType.ContentType(), u.Data, nil
}

// Validate checks that the value decodes to a non-empty image payload.
func (d DataURI) Validate() error {
	mime, _, err := d.Decode()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(mime, "image/") {
		return goerr.Wrap(ErrInvalidDataURI, "data URI is not an image", goerr.V("mime", mime))
	}
	return nil
}

// Digest returns a hex sha256 of the decoded payload, falling back to the
// raw string when it does not decode.
func (d DataURI) Digest() string {
	var sum [32]byte
	if _, data, err := d.Decode(); err == nil {
		sum = sha256.Sum256(data)
	} else {
		sum = sha256.Sum256([]byte(d))
	}
	return hex.EncodeToString(sum[:])
}
