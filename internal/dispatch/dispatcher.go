// Package dispatch routes validated form submissions to the sheet store.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"siterelay/internal/models"
	"siterelay/internal/schema"
	"siterelay/internal/sheets"
)

// Dispatcher reshapes a submission into its fixed-width row and appends
// it to the sheet configured for the form type.
type Dispatcher struct {
	store   sheets.Store
	titles  map[string]string // form type -> spreadsheet title
	timeout time.Duration
}

// NewDispatcher wires the store and the per-form-type sheet titles.
func NewDispatcher(store sheets.Store, contactSheet, applicationsSheet string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		store: store,
		titles: map[string]string{
			schema.FormContact:     contactSheet,
			schema.FormApplication: applicationsSheet,
		},
		timeout: timeout,
	}
}

// Submit stamps the submission, injects the uploaded-file reference when
// present, and appends the resulting row. No retries: a single store
// failure surfaces directly to the caller.
func (d *Dispatcher) Submit(ctx context.Context, formType string, data map[string]string, fileRef *models.UploadedFile) error {
	title, ok := d.titles[formType]
	if !ok {
		return schema.ErrInvalidFormType
	}

	submission := make(map[string]string, len(data)+2)
	for k, v := range data {
		submission[k] = v
	}
	submission["timestamp"] = time.Now().Format(models.TimestampLayout)
	if fileRef != nil {
		submission["resumeUrl"] = fileRef.RefPath
	}

	row, err := schema.RowFor(formType, submission)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.store.AppendRow(ctx, title, row); err != nil {
		return fmt.Errorf("submit %s form: %w", formType, err)
	}
	return nil
}
