package models

// UploadedFile describes a stored upload and the reference path clients
// use to retrieve it later.
type UploadedFile struct {
	StoredName   string `json:"stored_name"`
	OriginalName string `json:"original_name"`
	StoragePath  string `json:"-"`
	RefPath      string `json:"ref_path"`
	SizeBytes    int64  `json:"size_bytes"`
}
