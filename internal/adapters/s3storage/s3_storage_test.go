package s3storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFolderKey(t *testing.T) {
	tests := []struct {
		name     string
		parentID string
		folder   string
		want     string
	}{
		{
			name:     "parent with trailing separator",
			parentID: "courses/",
			folder:   "Semester_1",
			want:     "courses/Semester_1/",
		},
		{
			name:     "parent without trailing separator",
			parentID: "courses",
			folder:   "Semester_1",
			want:     "courses/Semester_1/",
		},
		{
			name:     "empty parent is the bucket root",
			parentID: "",
			folder:   "Semester_1",
			want:     "Semester_1/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, folderKey(tt.parentID, tt.folder))
		})
	}
}

func TestParentFolderID(t *testing.T) {
	assert.Equal(t, "courses/Semester_3/", parentFolderID("courses/Semester_3/2024.zip"))
	assert.Equal(t, "", parentFolderID("orphan.zip"))
}
