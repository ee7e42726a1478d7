package directory

import (
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
	"github.com/PolarWolf314/ripenv/internal/secrets"
)

// ExportFile serves a recipients export file as a Directory.
type ExportFile struct {
	path   string
	export *secrets.RecipientsExport
}

// NewExportFile loads and validates the export at path.
func NewExportFile(path string) (*ExportFile, error) {
	export, err := secrets.LoadRecipientsExport(path)
	if err != nil {
		return nil, err
	}
	return &ExportFile{path: path, export: export}, nil
}

// ProjectID returns the project the export was made for.
func (f *ExportFile) ProjectID() string {
	return f.export.ProjectID
}

// Recipients returns the exported recipients. An empty projectID means
// "whatever project the file is for".
//
// Returns ErrProjectMismatch when projectID names a different project.
func (f *ExportFile) Recipients(_ context.Context, projectID string) (*secrets.RecipientsExport, error) {
	if err := f.checkProject(projectID); err != nil {
		return nil, err
	}

	recipients := make([]secrets.Recipient, len(f.export.Recipients))
	copy(recipients, f.export.Recipients)
	return &secrets.RecipientsExport{ProjectID: f.export.ProjectID, Recipients: recipients}, nil
}

// VerifyAccess reports whether email is listed in the export.
func (f *ExportFile) VerifyAccess(_ context.Context, projectID, email string) (bool, error) {
	if err := f.checkProject(projectID); err != nil {
		return false, err
	}
	return f.export.Has(email), nil
}

// TouchProject does nothing; an export file has no server to notify.
func (f *ExportFile) TouchProject(context.Context, string) error {
	return nil
}

func (f *ExportFile) checkProject(projectID string) error {
	if projectID != "" && projectID != f.export.ProjectID {
		return fmt.Errorf("%w: %s is for project %q, not %q",
			kerrors.ErrProjectMismatch, f.path, f.export.ProjectID, projectID)
	}
	return nil
}
