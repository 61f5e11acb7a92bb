package constants

// Default allowed file extensions per media kind
var (
	DefaultImageTypes    = []string{"jpg", "jpeg", "png", "gif", "webp"}
	DefaultVideoTypes    = []string{"mp4", "mov", "webm"}
	DefaultDocumentTypes = []string{"pdf", "doc", "docx", "txt", "zip"}
	DefaultVoiceTypes    = []string{"ogg", "m4a", "webm", "mp3", "wav"}
)

// MimeTypeByExtension maps common extensions to MIME types for outbound media.
var MimeTypeByExtension = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"webm": "video/webm",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":  "text/plain",
	"zip":  "application/zip",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
}
