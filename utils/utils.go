package utils

import (
	"fmt"
	"os"

	"github.com/vincent-petithory/dataurl"
)

const WAVMime = "audio/wav"

func MkDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}
	return nil
}

// EncodeDataURL returns data as a base64 data URL.
func EncodeDataURL(mime string, data []byte) string {
	return dataurl.New(data, mime).String()
}

// DecodeDataURL splits a data URL into its content type and payload.
func DecodeDataURL(url string) (string, []byte, error) {
	du, err := dataurl.DecodeString(url)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	return du.ContentType(), du.Data, nil
}
