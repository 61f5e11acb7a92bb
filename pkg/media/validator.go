package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"roomchat/internal/constants"
	"roomchat/internal/models"
	"roomchat/internal/security"
)

// Validator checks outbound attachments against per-kind extension allowlists
// and size caps before they are handed to the transport.
type Validator struct {
	config models.MediaConfig
}

func NewValidator(config models.MediaConfig) *Validator {
	return &Validator{config: config}
}

// KindForExtension maps a file extension to the message kind it will be sent
// as. Unknown extensions are rejected rather than defaulted.
func (v *Validator) KindForExtension(ext string) (models.MessageKind, bool) {
	ext = normalizeExt(ext)
	for _, e := range v.config.AllowedTypes.Image {
		if ext == e {
			return models.ImageMessage, true
		}
	}
	for _, e := range v.config.AllowedTypes.Video {
		if ext == e {
			return models.VideoMessage, true
		}
	}
	for _, e := range v.config.AllowedTypes.Voice {
		if ext == e {
			return models.VoiceMessage, true
		}
	}
	for _, e := range v.config.AllowedTypes.Document {
		if ext == e {
			return models.DocumentMessage, true
		}
	}
	return "", false
}

// ValidateFile checks a picked file and returns the kind it should be sent as.
func (v *Validator) ValidateFile(path string) (models.MessageKind, error) {
	if err := security.ValidateFilePath(path); err != nil {
		return "", fmt.Errorf("invalid media path: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	ext := normalizeExt(filepath.Ext(path))
	kind, ok := v.KindForExtension(ext)
	if !ok {
		return "", fmt.Errorf("unsupported file type: .%s", ext)
	}

	if err := v.ValidateSize(kind, info.Size()); err != nil {
		return "", err
	}
	return kind, nil
}

// ValidateSize checks a payload size against the configured cap for its kind.
func (v *Validator) ValidateSize(kind models.MessageKind, sizeBytes int64) error {
	maxMB := v.maxSizeMB(kind)
	if maxMB <= 0 {
		return fmt.Errorf("no size limit configured for kind %s", kind)
	}
	if sizeBytes > int64(maxMB)*1024*1024 {
		return fmt.Errorf("%s exceeds %d MB limit", kind, maxMB)
	}
	return nil
}

// MimeType returns the MIME type for an extension, with a binary fallback.
func MimeType(ext string) string {
	if mt, ok := constants.MimeTypeByExtension[normalizeExt(ext)]; ok {
		return mt
	}
	return "application/octet-stream"
}

func (v *Validator) maxSizeMB(kind models.MessageKind) int {
	switch kind {
	case models.ImageMessage:
		return v.config.MaxSizeMB.Image
	case models.VideoMessage:
		return v.config.MaxSizeMB.Video
	case models.VoiceMessage:
		return v.config.MaxSizeMB.Voice
	case models.DocumentMessage:
		return v.config.MaxSizeMB.Document
	default:
		return 0
	}
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
