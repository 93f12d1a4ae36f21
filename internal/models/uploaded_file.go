package models

// UploadedFile is a file the user picked or dropped on the uploader.
// It is never modified after creation.
type UploadedFile struct {
	Name      string
	SizeBytes int64
	Content   []byte
}

// NewUploadedFile wraps raw content under its original filename.
func NewUploadedFile(name string, content []byte) *UploadedFile {
	return &UploadedFile{
		Name:      name,
		SizeBytes: int64(len(content)),
		Content:   content,
	}
}

// FileMeta is the display identity of an UploadedFile.
type FileMeta struct {
	Name      string `json:"name" msgpack:"name"`
	SizeBytes int64  `json:"sizeBytes" msgpack:"sizeBytes"`
}

// Meta returns the file identity without its content.
func (f *UploadedFile) Meta() *FileMeta {
	if f == nil {
		return nil
	}
	return &FileMeta{Name: f.Name, SizeBytes: f.SizeBytes}
}

// SizeKB formats the size the way the uploader shows it.
func (m *FileMeta) SizeKB() float64 {
	return float64(m.SizeBytes) / 1024
}
