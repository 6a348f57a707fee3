package types

import "github.com/go-playground/validator/v10"

// ProcessRequest is the body of POST /process.
type ProcessRequest struct {
	ArchivePath string `json:"archive_path" validate:"required"`
	NoBackup    bool   `json:"no_backup"`
	BackupDir   string `json:"backup_dir"`
}

// Validate validates the ProcessRequest using the validator.
func (r *ProcessRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ScanRequest is the body of POST /scan.
type ScanRequest struct {
	ArchivePath string `json:"archive_path" validate:"required"`
}

// Validate validates the ScanRequest using the validator.
func (r *ScanRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
