package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "absolute path", path: "/home/user/photos/cat.jpg"},
		{name: "relative path", path: "photos/cat.jpg"},
		{name: "empty", path: "", wantErr: true},
		{name: "nul byte", path: "file\x00.jpg", wantErr: true},
		{name: "traversal", path: "../../../etc/passwd", wantErr: true},
		{name: "embedded traversal", path: "photos/../../secret", wantErr: true},
		{name: "dot segments that clean away", path: "photos/./cat.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFilePathWithBase(t *testing.T) {
	assert.NoError(t, ValidateFilePathWithBase("cat.jpg", "/data/media"))
	assert.NoError(t, ValidateFilePathWithBase("album/cat.jpg", "/data/media"))
	assert.Error(t, ValidateFilePathWithBase("../outside.jpg", "/data/media"))
}
