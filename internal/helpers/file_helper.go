package helpers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

type UploadConfig struct {
	MaxSizeBytes     int64
	AllowedMimeTypes []string
}

var DefaultImageUploadConfig = UploadConfig{
	MaxSizeBytes: 5 * 1024 * 1024, // 5MB
	AllowedMimeTypes: []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	},
}

// ReadUploadedFile buffers the multipart file in memory, enforcing the size
// limit and sniffing the mime type from the content rather than the header.
func ReadUploadedFile(fileHeader *multipart.FileHeader, configs ...UploadConfig) ([]byte, string, error) {
	config := DefaultImageUploadConfig
	if len(configs) > 0 {
		config = configs[0]
	}

	if fileHeader.Size > config.MaxSizeBytes {
		return nil, "", fmt.Errorf("file size exceeds maximum limit of %d MB", config.MaxSizeBytes/(1024*1024))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, config.MaxSizeBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > config.MaxSizeBytes {
		return nil, "", fmt.Errorf("file size exceeds maximum limit of %d MB", config.MaxSizeBytes/(1024*1024))
	}

	mimeType := http.DetectContentType(data)

	mimeTypeAllowed := false
	for _, allowedType := range config.AllowedMimeTypes {
		if mimeType == allowedType {
			mimeTypeAllowed = true
			break
		}
	}
	if !mimeTypeAllowed {
		return nil, "", fmt.Errorf("invalid file type. Allowed types: %v", config.AllowedMimeTypes)
	}

	return data, mimeType, nil
}
