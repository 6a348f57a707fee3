// Package types holds the data structures shared between the pipeline, CLI
// and HTTP layers.
package types

// Report is the outcome of one archive operation. A successful run with
// Changed=false means the archive carried no AlwaysOn or XTP references and
// was left byte-for-byte untouched.
type Report struct {
	Success    bool     `json:"success"`
	Changed    bool     `json:"changed"`
	Message    string   `json:"message"`
	BackupPath string   `json:"backup_path,omitempty"`
	ModelHash  string   `json:"model_hash,omitempty"`
	Removed    []string `json:"removed,omitempty"` // local names of removed elements
}
