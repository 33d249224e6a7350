// Package services defines the error taxonomy and context conventions shared
// by the external service clients and pipeline stages.
//
// Errors are tagged with sentinel markers (ErrAuth, ErrTransient, ErrMalformed,
// ErrUnavailable, ErrConfiguration) so the pipeline can classify a failure
// without inspecting message text. Stage-local errors never unwind past their
// stage; only ErrAuth and ErrConfiguration terminate a run.
package services
