package project

import "errors"

var (
	// ErrNotFound indicates the platform has no data for a listed project.
	ErrNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrInitialization indicates the platform did not create the project or its editor slot.
	ErrInitialization = errors.New("project initialization failed")
	// ErrJoin indicates joining an editor slot got no reply.
	ErrJoin = errors.New("joining editor slot failed")
	// ErrConnect indicates the edit connection could not be established.
	ErrConnect = errors.New("connecting editor slot failed")
	// ErrSave indicates the platform refused to save the initialized project.
	ErrSave = errors.New("saving project failed")
	// ErrDeletion indicates the platform refused to delete a project.
	ErrDeletion = errors.New("deleting project failed")
	// ErrTimeout indicates initialization was not confirmed in time.
	ErrTimeout = errors.New("project initialization not confirmed")
)
