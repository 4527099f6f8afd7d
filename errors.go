package knnviz

import (
	"errors"

	"github.com/hupe1980/knnviz/classifier"
	"github.com/hupe1980/knnviz/model"
)

var (
	// ErrInvalidK is returned when k is not positive, or when a session K is
	// outside the allowed odd range.
	ErrInvalidK = classifier.ErrInvalidK

	// ErrInvalidClass is returned for labels other than A and B.
	ErrInvalidClass = model.ErrInvalidClass

	// ErrInvalidCoordinate is returned for NaN or infinite coordinates.
	ErrInvalidCoordinate = errors.New("coordinate must be a finite number")

	// ErrSessionNotFound is returned when a session does not exist or expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManyPoints is returned when a training set reached its capacity.
	ErrTooManyPoints = errors.New("too many training points")
)
